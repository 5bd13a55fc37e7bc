// Package unpack expands downloaded series archives into a shared staging
// directory.
//
//	exp := unpack.NewExpander("zip", "unpacked")
//	archives, err := exp.Expand("/data/lidc")
//	// every /data/lidc/*.zip is now extracted under /data/lidc/unpacked/
//
// Only archives directly inside the destination directory are considered.
// All archives share one target directory and entries with the same name
// overwrite each other in archive name order (last writer wins). Nothing
// detects or renames such collisions.
//
// A corrupt archive usually means a broken download, so failure to open or
// extract one stops the expansion and is returned to the caller.
package unpack
