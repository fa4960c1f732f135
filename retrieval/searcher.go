package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ollieb89/chroma-tool/store"
)

// MultiCollectionSearcher fans a query out across several collections.
// Each collection is an independent failure domain: one failing backend
// only empties its own slice of the results.
type MultiCollectionSearcher struct {
	names      []string
	retrievers map[string]*Retriever
	logger     *slog.Logger
}

// NewMultiCollectionSearcher opens a retriever per collection name.
func NewMultiCollectionSearcher(ctx context.Context, client store.Client, names []string) (*MultiCollectionSearcher, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one collection required")
	}

	retrievers := make(map[string]*Retriever, len(names))
	for _, name := range names {
		r, err := NewRetriever(ctx, client, name)
		if err != nil {
			return nil, err
		}
		retrievers[name] = r
	}

	return &MultiCollectionSearcher{
		names:      append([]string(nil), names...),
		retrievers: retrievers,
		logger:     slog.Default(),
	}, nil
}

// Collections returns the searched collection names in order.
func (s *MultiCollectionSearcher) Collections() []string {
	return append([]string(nil), s.names...)
}

// Search queries every collection and concatenates results in collection
// order, tagging each with its source collection. No cross-collection
// ranking is applied.
func (s *MultiCollectionSearcher) Search(ctx context.Context, queryText string, nResults int) []Result {
	var out []Result
	for _, name := range s.names {
		results := s.retrievers[name].Query(ctx, queryText, nResults)
		for _, res := range results {
			res.Collection = name
			out = append(out, res)
		}
	}
	return out
}

// SearchAll queries every collection and keys results by collection name.
func (s *MultiCollectionSearcher) SearchAll(ctx context.Context, queryText string, nResults int) map[string][]Result {
	out := make(map[string][]Result, len(s.names))
	for _, name := range s.names {
		out[name] = s.retrievers[name].Query(ctx, queryText, nResults)
	}
	return out
}

// SearchRanked merges over-fetched results from every collection into one
// list ordered by ascending distance.
func (s *MultiCollectionSearcher) SearchRanked(ctx context.Context, queryText string, nResults int) []Result {
	if nResults <= 0 {
		nResults = DefaultSemanticResults
	}

	merged := s.Search(ctx, queryText, nResults*2)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	if len(merged) > nResults {
		merged = merged[:nResults]
	}
	return merged
}
