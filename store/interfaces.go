package store

import (
	"context"

	"github.com/ollieb89/chroma-tool/core"
)

// Client provides access to a collection-oriented vector store.
// Implementations must be safe for reuse across components; one client is
// constructed at process start and injected everywhere it is needed.
type Client interface {
	// GetOrCreateCollection returns a handle for the named collection,
	// creating it when it does not exist.
	GetOrCreateCollection(ctx context.Context, name string) (Collection, error)

	// ListCollections returns handles for stored collections, paginated.
	ListCollections(ctx context.Context, limit, offset int) ([]Collection, error)

	// Close releases the client's resources.
	Close() error
}

// GetOptions narrows a Collection.Get call. Zero-value fields are omitted from
// the request. Limit <= 0 means no limit.
type GetOptions struct {
	IDs           []string
	Where         core.Metadata
	WhereDocument core.Metadata
	Limit         int
	Offset        int
}

// GetResult holds the parallel arrays returned by Collection.Get.
// All slices have equal length.
type GetResult struct {
	IDs       []string
	Documents []string
	Metadatas []core.Metadata
}

// QueryResult holds nearest-neighbor results, nested one level per input
// query text. Distances are dissimilarity scores: lower is more similar.
type QueryResult struct {
	Documents [][]string
	Metadatas [][]core.Metadata
	Distances [][]float64
}

// Collection is a handle to one named collection of chunks.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Upsert writes chunks by id, overwriting existing ids.
	// All three slices must be the same length.
	Upsert(ctx context.Context, ids, documents []string, metadatas []core.Metadata) error

	// Get reads stored chunks matching the options, as parallel arrays.
	Get(ctx context.Context, opts GetOptions) (GetResult, error)

	// Update replaces the documents and metadata of existing ids.
	// Metadata replacement is full, not a merge; callers merge first.
	Update(ctx context.Context, ids, documents []string, metadatas []core.Metadata) error

	// Query returns the nResults nearest neighbors for each query text.
	Query(ctx context.Context, queryTexts []string, nResults int) (QueryResult, error)

	// Count returns the number of chunks stored in the collection.
	Count(ctx context.Context) (int, error)
}
