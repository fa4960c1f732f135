package core

import "fmt"

// ValidateChunk validates a chunk at the store-write boundary.
//
// Validation rules:
//   - ID must not be empty
//   - Text must not be empty
//   - all required metadata keys must be present
//   - all metadata values must be scalar (string, int, float64, bool)
//
// When entity is true, the entity-aware keys (entity, category, tech_stack,
// description, source_collection) are also required.
func ValidateChunk(chunk *Chunk, entity bool) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyID)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	for _, key := range requiredKeys {
		if _, ok := chunk.Metadata[key]; !ok {
			return fmt.Errorf("%w: %w: %q", ErrInvalidChunk, ErrMissingMetadataKey, key)
		}
	}

	if entity {
		for _, key := range entityKeys {
			if _, ok := chunk.Metadata[key]; !ok {
				return fmt.Errorf("%w: %w: %q", ErrInvalidChunk, ErrMissingMetadataKey, key)
			}
		}
	}

	for key, value := range chunk.Metadata {
		if !isScalar(value) {
			return fmt.Errorf("%w: %w: key %q has type %T", ErrInvalidChunk, ErrNonScalarMetadata, key, value)
		}
	}

	return nil
}

// isScalar reports whether a metadata value is one of the types the store
// accepts. float64 covers values round-tripped through JSON.
func isScalar(v any) bool {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return true
	}
	return false
}

// ClampOverlap returns a safe chunk overlap for the given chunk size. An
// overlap at or above the chunk size would make the splitter loop, so it is
// reduced to a tenth of the chunk size.
func ClampOverlap(chunkSize, chunkOverlap int) int {
	if chunkOverlap >= chunkSize {
		overlap := chunkSize / 10
		if overlap < 0 {
			overlap = 0
		}
		return overlap
	}
	if chunkOverlap < 0 {
		return 0
	}
	return chunkOverlap
}
