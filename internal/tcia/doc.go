// Package tcia interprets TCIA catalog responses.
//
// The catalog endpoint returns a JSON array of records, each with a
// "Collection" field. This package decodes that stream and validates a
// collection name against it:
//
//	body, _ := client.CollectionValues(ctx)
//	defer body.Close()
//	names, err := tcia.ParseCollections(body)
//
//	err = tcia.ValidateCollection("LIDC-IDRI", names)
//	if errors.Is(err, tcia.ErrCollectionNotSupported) {
//	    // valid name, but downloading by collection is not implemented
//	}
//
// Downloading a collection by name is not supported; callers are expected to
// supply a manifest file instead. ValidateCollection therefore never returns
// nil: either the name is unknown, or it is known and unsupported.
package tcia
