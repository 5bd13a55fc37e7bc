package tcia

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/handiism/tcia-downloader/internal/tcia/dto"
)

// ErrCollectionNotSupported is returned for a valid collection name, since
// downloading a collection by name is not implemented.
var ErrCollectionNotSupported = errors.New("downloading from collection by name is not yet supported, please supply a manifest file")

// UnknownCollectionError is returned when a name is not in the catalog.
type UnknownCollectionError struct {
	Name  string
	Valid []string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("invalid collection %q, valid choices:\n%s", e.Name, strings.Join(e.Valid, "\n"))
}

// ParseCollections decodes a getCollectionValues JSON stream into the list of
// collection names, in response order.
func ParseCollections(r io.Reader) ([]string, error) {
	var values []dto.CollectionValue
	if err := json.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to parse collection values: %w", err)
	}

	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.Collection)
	}
	return names, nil
}

// ValidateCollection checks name against the catalog. It returns an
// *UnknownCollectionError for names not in valid, and
// ErrCollectionNotSupported otherwise.
func ValidateCollection(name string, valid []string) error {
	for _, v := range valid {
		if v == name {
			return fmt.Errorf("collection %q: %w", name, ErrCollectionNotSupported)
		}
	}
	return &UnknownCollectionError{Name: name, Valid: valid}
}
