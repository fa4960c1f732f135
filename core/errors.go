package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyID indicates the chunk ID field is empty.
	ErrEmptyID = errors.New("chunk id cannot be empty")

	// ErrEmptyText indicates the chunk Text field is empty.
	ErrEmptyText = errors.New("chunk text cannot be empty")

	// ErrMissingMetadataKey indicates a required metadata key is absent.
	ErrMissingMetadataKey = errors.New("missing required metadata key")

	// ErrNonScalarMetadata indicates a metadata value is not a scalar type.
	ErrNonScalarMetadata = errors.New("metadata value must be a scalar")
)
