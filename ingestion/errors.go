package ingestion

import "errors"

var (
	// ErrClientRequired is returned when a store client is not provided.
	ErrClientRequired = errors.New("store client required")

	// ErrCollectionRequired is returned when a collection name is not provided.
	ErrCollectionRequired = errors.New("collection name required")

	// ErrNoFolders is returned when no target folders are provided.
	ErrNoFolders = errors.New("at least one target folder required")
)
