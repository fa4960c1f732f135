package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

// Defaults for retrieval operations.
const (
	DefaultQueryResults    = 3
	DefaultSemanticResults = 5
	DefaultMetadataResults = 10

	// DefaultDistanceThreshold admits everything a typical embedding
	// space returns for a related query.
	DefaultDistanceThreshold = 1.0
)

// Result is one retrieved chunk with its similarity distance. Lower
// distance means more similar. Collection is set by multi-collection
// search.
type Result struct {
	Document   string
	Metadata   core.Metadata
	Distance   float64
	Collection string
}

// Info describes a collection.
type Info struct {
	Name  string
	Count int
}

// Retriever queries one collection. Query failures are logged and surface
// as empty result sets, so callers can treat "nothing relevant" and
// "store unavailable" uniformly when assembling context.
type Retriever struct {
	collection store.Collection
	logger     *slog.Logger
}

// NewRetriever opens the named collection for querying, creating it if it
// does not exist.
func NewRetriever(ctx context.Context, client store.Client, collection string) (*Retriever, error) {
	if client == nil {
		return nil, fmt.Errorf("client required")
	}
	coll, err := client.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}
	return &Retriever{
		collection: coll,
		logger:     slog.Default(),
	}, nil
}

// SetLogger replaces the default logger.
func (r *Retriever) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Query runs a semantic similarity search and returns up to nResults
// results ordered by ascending distance.
func (r *Retriever) Query(ctx context.Context, queryText string, nResults int) []Result {
	if nResults <= 0 {
		nResults = DefaultQueryResults
	}

	res, err := r.collection.Query(ctx, []string{queryText}, nResults)
	if err != nil {
		r.logger.Error("query failed", "collection", r.collection.Name(), "err", err)
		return nil
	}
	if len(res.Documents) == 0 || len(res.Documents[0]) == 0 {
		return nil
	}

	// The response carries parallel arrays; a malformed reply may ship them
	// at different lengths, so each is bounds-checked independently.
	var distances []float64
	if len(res.Distances) > 0 {
		distances = res.Distances[0]
	}
	var metadatas []core.Metadata
	if len(res.Metadatas) > 0 {
		metadatas = res.Metadatas[0]
	}

	results := make([]Result, 0, len(res.Documents[0]))
	for i, doc := range res.Documents[0] {
		result := Result{Document: doc}
		if i < len(distances) {
			result.Distance = distances[i]
		}
		if i < len(metadatas) {
			result.Metadata = metadatas[i]
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > nResults {
		results = results[:nResults]
	}
	return results
}

// QuerySemantic over-fetches, then drops results farther than the
// distance threshold.
func (r *Retriever) QuerySemantic(ctx context.Context, queryText string, nResults int, threshold float64) []Result {
	if nResults <= 0 {
		nResults = DefaultSemanticResults
	}

	candidates := r.Query(ctx, queryText, nResults*2)
	filtered := make([]Result, 0, len(candidates))
	for _, res := range candidates {
		if res.Distance <= threshold {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) > nResults {
		filtered = filtered[:nResults]
	}
	return filtered
}

// QueryByMetadata fetches documents matching metadata and document
// filters, without similarity ranking.
func (r *Retriever) QueryByMetadata(ctx context.Context, where, whereDocument map[string]any, nResults int) []Result {
	if nResults <= 0 {
		nResults = DefaultMetadataResults
	}

	res, err := r.collection.Get(ctx, store.GetOptions{
		Where:         where,
		WhereDocument: whereDocument,
		Limit:         nResults,
	})
	if err != nil {
		r.logger.Error("metadata query failed", "collection", r.collection.Name(), "err", err)
		return nil
	}

	return flatten(res)
}

// GetBySource fetches every chunk ingested from the given filename.
func (r *Retriever) GetBySource(ctx context.Context, filename string) []Result {
	res, err := r.collection.Get(ctx, store.GetOptions{
		Where: map[string]any{core.KeyFilename: filename},
	})
	if err != nil {
		r.logger.Error("get by source failed", "collection", r.collection.Name(), "err", err)
		return nil
	}

	return flatten(res)
}

// Context formats query results into a prompt-ready context block. Each
// result is prefixed with its source when includeMetadata is set.
func (r *Retriever) Context(ctx context.Context, queryText string, nResults int, includeMetadata bool) string {
	results := r.Query(ctx, queryText, nResults)
	if len(results) == 0 {
		return "No relevant context found."
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		if !includeMetadata {
			parts = append(parts, res.Document)
			continue
		}
		src := res.Metadata.String(core.KeySource)
		if src == "" {
			src = res.Metadata.String(core.KeyFilename)
		}
		if src == "" {
			src = "unknown"
		}
		parts = append(parts, fmt.Sprintf("--- Source: %s ---\n%s", src, res.Document))
	}
	return strings.Join(parts, "\n\n")
}

// Info reports the collection name and chunk count. A failed count is
// logged and reported as zero.
func (r *Retriever) Info(ctx context.Context) Info {
	count, err := r.collection.Count(ctx)
	if err != nil {
		r.logger.Error("count failed", "collection", r.collection.Name(), "err", err)
		count = 0
	}
	return Info{Name: r.collection.Name(), Count: count}
}

func flatten(res store.GetResult) []Result {
	if len(res.Documents) == 0 {
		return nil
	}
	results := make([]Result, 0, len(res.Documents))
	for i, doc := range res.Documents {
		result := Result{Document: doc}
		if i < len(res.Metadatas) {
			result.Metadata = res.Metadatas[i]
		}
		results = append(results, result)
	}
	return results
}
