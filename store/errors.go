package store

import "errors"

var (
	// ErrLengthMismatch indicates the ids/documents/metadatas arrays passed to
	// Upsert or Update differ in length.
	ErrLengthMismatch = errors.New("ids, documents and metadatas must have the same length")

	// ErrNotFound indicates one of the requested ids does not exist.
	ErrNotFound = errors.New("id not found")

	// ErrUnavailable indicates the store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)
