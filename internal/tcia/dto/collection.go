package dto

// CollectionValue is one record of the getCollectionValues response.
type CollectionValue struct {
	Collection string `json:"Collection"`
}
