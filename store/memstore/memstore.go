// Package memstore provides an in-memory store.Client implementation.
//
// It is used by tests and offline runs. Query distances are computed with a
// deterministic lexical score instead of embeddings, so distance ordering is
// reproducible without a running server.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

// Store is an in-memory vector store.
type Store struct {
	mu          sync.Mutex
	collections map[string]*Collection
	order       []string
}

var _ store.Client = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// GetOrCreateCollection returns the named collection, creating it on first use.
func (s *Store) GetOrCreateCollection(_ context.Context, name string) (store.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.collections[name]; ok {
		return coll, nil
	}
	coll := &Collection{
		name:    name,
		records: make(map[string]record),
	}
	s.collections[name] = coll
	s.order = append(s.order, name)
	return coll, nil
}

// ListCollections returns collections in creation order, paginated.
func (s *Store) ListCollections(_ context.Context, limit, offset int) ([]store.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset >= len(s.order) {
		return nil, nil
	}
	names := s.order[offset:]
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	out := make([]store.Collection, len(names))
	for i, name := range names {
		out[i] = s.collections[name]
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

type record struct {
	text string
	meta core.Metadata
}

// Collection is an in-memory collection. The exported *Err fields and the
// UpdateCalls counter are test hooks: a non-nil error is returned by the
// corresponding operation.
type Collection struct {
	name string

	mu      sync.Mutex
	records map[string]record
	ids     []string // insertion order

	QueryErr  error
	GetErr    error
	UpdateErr error
	UpsertErr error
	CountErr  error

	UpdateCalls int
	UpsertCalls int
}

var _ store.Collection = (*Collection)(nil)

func (c *Collection) Name() string {
	return c.name
}

// Upsert writes chunks by id, overwriting existing ids in place.
func (c *Collection) Upsert(_ context.Context, ids, documents []string, metadatas []core.Metadata) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return store.ErrLengthMismatch
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.UpsertCalls++
	if c.UpsertErr != nil {
		return c.UpsertErr
	}

	for i, id := range ids {
		if _, exists := c.records[id]; !exists {
			c.ids = append(c.ids, id)
		}
		c.records[id] = record{text: documents[i], meta: metadatas[i].Clone()}
	}
	return nil
}

// Update replaces documents and metadata of existing ids.
func (c *Collection) Update(_ context.Context, ids, documents []string, metadatas []core.Metadata) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return store.ErrLengthMismatch
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.UpdateCalls++
	if c.UpdateErr != nil {
		return c.UpdateErr
	}

	for _, id := range ids {
		if _, exists := c.records[id]; !exists {
			return store.ErrNotFound
		}
	}
	for i, id := range ids {
		c.records[id] = record{text: documents[i], meta: metadatas[i].Clone()}
	}
	return nil
}

// Get returns stored chunks in insertion order, filtered and paginated.
func (c *Collection) Get(_ context.Context, opts store.GetOptions) (store.GetResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.GetErr != nil {
		return store.GetResult{}, c.GetErr
	}

	wanted := c.ids
	if len(opts.IDs) > 0 {
		wanted = opts.IDs
	}

	var res store.GetResult
	skipped := 0
	for _, id := range wanted {
		rec, ok := c.records[id]
		if !ok {
			continue
		}
		if !matchesWhere(rec.meta, opts.Where) {
			continue
		}
		if !matchesWhereDocument(rec.text, opts.WhereDocument) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		res.IDs = append(res.IDs, id)
		res.Documents = append(res.Documents, rec.text)
		res.Metadatas = append(res.Metadatas, rec.meta.Clone())
		if opts.Limit > 0 && len(res.IDs) >= opts.Limit {
			break
		}
	}
	return res, nil
}

// Query ranks stored chunks by lexical distance to each query text, ascending.
// Ties break on id so results are stable.
func (c *Collection) Query(_ context.Context, queryTexts []string, nResults int) (store.QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.QueryErr != nil {
		return store.QueryResult{}, c.QueryErr
	}

	var out store.QueryResult
	for _, query := range queryTexts {
		type scored struct {
			id       string
			distance float64
		}
		ranked := make([]scored, 0, len(c.records))
		for _, id := range c.ids {
			ranked = append(ranked, scored{id: id, distance: lexicalDistance(query, c.records[id].text)})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].distance != ranked[j].distance {
				return ranked[i].distance < ranked[j].distance
			}
			return ranked[i].id < ranked[j].id
		})
		if nResults > 0 && nResults < len(ranked) {
			ranked = ranked[:nResults]
		}

		docs := make([]string, len(ranked))
		metas := make([]core.Metadata, len(ranked))
		dists := make([]float64, len(ranked))
		for i, hit := range ranked {
			rec := c.records[hit.id]
			docs[i] = rec.text
			metas[i] = rec.meta.Clone()
			dists[i] = hit.distance
		}
		out.Documents = append(out.Documents, docs)
		out.Metadatas = append(out.Metadatas, metas)
		out.Distances = append(out.Distances, dists)
	}
	return out, nil
}

// Count returns the number of stored chunks.
func (c *Collection) Count(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CountErr != nil {
		return 0, c.CountErr
	}
	return len(c.records), nil
}

func matchesWhere(meta core.Metadata, where core.Metadata) bool {
	for key, want := range where {
		if meta[key] != want {
			return false
		}
	}
	return true
}

// matchesWhereDocument evaluates the document-content operators. An unknown
// operator matches nothing.
func matchesWhereDocument(text string, where core.Metadata) bool {
	for op, value := range where {
		want, _ := value.(string)
		switch op {
		case "$contains":
			if !strings.Contains(text, want) {
				return false
			}
		case "$not_contains":
			if strings.Contains(text, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
