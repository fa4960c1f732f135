// Package chroma implements store.Client backed by a Chroma server, using the
// chroma-go client library for transport.
package chroma

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

// Config holds connection settings for a Chroma server.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:9500".
	BaseURL string
}

// Client talks to a Chroma server through the chroma-go API client.
type Client struct {
	baseURL string
	api     chromago.Client
	logger  *slog.Logger
}

var _ store.Client = (*Client)(nil)

// newClient is an internal constructor that returns the concrete type.
func newClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("chroma: base URL required")
	}

	api, err := chromago.NewHTTPClient(chromago.WithBaseURL(base))
	if err != nil {
		return nil, fmt.Errorf("chroma: create client for %q: %w", base, err)
	}

	c := &Client{
		baseURL: base,
		api:     api,
		logger:  slog.Default().With("component", "chroma-client"),
	}

	// An unreachable server is a configuration error and is returned to the
	// caller rather than retried.
	if err := api.Heartbeat(context.Background()); err != nil {
		api.Close()
		return nil, fmt.Errorf("%w: %s: %w", store.ErrUnavailable, base, err)
	}

	return c, nil
}

// New creates a client and verifies the server is reachable.
//
// Returns the store.Client interface to enforce abstraction.
func New(cfg Config) (store.Client, error) {
	return newClient(cfg)
}

// BaseURL returns the configured server root. Used for audit logging.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.api.Close()
}

// GetOrCreateCollection returns a handle for the named collection, creating
// it on the server when missing. Embedding stays on the server side; the
// client sends documents, not vectors.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string) (store.Collection, error) {
	col, err := c.api.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", name, err)
	}
	return &collection{name: name, col: col}, nil
}

// ListCollections returns handles for stored collections. Pagination is
// applied client-side over the server's full listing.
func (c *Client) ListCollections(ctx context.Context, limit, offset int) ([]store.Collection, error) {
	cols, err := c.api.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	if offset >= len(cols) {
		return nil, nil
	}
	cols = cols[offset:]
	if limit > 0 && limit < len(cols) {
		cols = cols[:limit]
	}

	out := make([]store.Collection, len(cols))
	for i, col := range cols {
		out[i] = &collection{name: col.Name(), col: col}
	}
	return out, nil
}

// collection is a handle bound to a server-side collection.
type collection struct {
	name string
	col  chromago.Collection
}

var _ store.Collection = (*collection)(nil)

func (c *collection) Name() string {
	return c.name
}

// Upsert writes chunks by id, overwriting existing ids.
func (c *collection) Upsert(ctx context.Context, ids, documents []string, metadatas []core.Metadata) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return store.ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	err := c.col.Upsert(ctx,
		chromago.WithIDs(toDocumentIDs(ids)...),
		chromago.WithTexts(documents...),
		chromago.WithMetadatas(toDocumentMetadatas(metadatas)...),
	)
	if err != nil {
		return fmt.Errorf("upsert %d chunks into %q: %w", len(ids), c.name, err)
	}
	return nil
}

// Update replaces the documents and metadata of existing ids.
func (c *collection) Update(ctx context.Context, ids, documents []string, metadatas []core.Metadata) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return store.ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	err := c.col.Update(ctx,
		chromago.WithIDsUpdate(toDocumentIDs(ids)...),
		chromago.WithTextsUpdate(documents...),
		chromago.WithMetadatasUpdate(toDocumentMetadatas(metadatas)...),
	)
	if err != nil {
		return fmt.Errorf("update %d chunks in %q: %w", len(ids), c.name, err)
	}
	return nil
}

// Get reads stored chunks matching the options, as parallel arrays.
func (c *collection) Get(ctx context.Context, opts store.GetOptions) (store.GetResult, error) {
	getOpts := []chromago.CollectionGetOption{
		chromago.WithIncludeGet(chromago.IncludeDocuments, chromago.IncludeMetadatas),
	}
	if len(opts.IDs) > 0 {
		getOpts = append(getOpts, chromago.WithIDsGet(toDocumentIDs(opts.IDs)...))
	}
	if filter := whereFromMetadata(opts.Where); filter != nil {
		getOpts = append(getOpts, chromago.WithWhereGet(filter))
	}
	if filter := whereDocumentFromMetadata(opts.WhereDocument); filter != nil {
		getOpts = append(getOpts, chromago.WithWhereDocumentGet(filter))
	}
	if opts.Limit > 0 {
		getOpts = append(getOpts, chromago.WithLimitGet(opts.Limit))
	}
	if opts.Offset > 0 {
		getOpts = append(getOpts, chromago.WithOffsetGet(opts.Offset))
	}

	res, err := c.col.Get(ctx, getOpts...)
	if err != nil {
		return store.GetResult{}, fmt.Errorf("get from %q: %w", c.name, err)
	}

	out := store.GetResult{
		IDs:       fromDocumentIDs(res.GetIDs()),
		Documents: fromDocuments(res.GetDocuments()),
	}
	for _, md := range res.GetMetadatas() {
		out.Metadatas = append(out.Metadatas, fromDocumentMetadata(md))
	}
	return out, nil
}

// Query returns the nResults nearest neighbors for each query text.
func (c *collection) Query(ctx context.Context, queryTexts []string, nResults int) (store.QueryResult, error) {
	res, err := c.col.Query(ctx,
		chromago.WithQueryTexts(queryTexts...),
		chromago.WithNResults(nResults),
		chromago.WithIncludeQuery(chromago.IncludeDocuments, chromago.IncludeMetadatas, chromago.IncludeDistances),
	)
	if err != nil {
		return store.QueryResult{}, fmt.Errorf("query %q: %w", c.name, err)
	}

	var out store.QueryResult
	for _, docs := range res.GetDocumentsGroups() {
		out.Documents = append(out.Documents, fromDocuments(docs))
	}
	for _, group := range res.GetMetadatasGroups() {
		metas := make([]core.Metadata, len(group))
		for i, md := range group {
			metas[i] = fromDocumentMetadata(md)
		}
		out.Metadatas = append(out.Metadatas, metas)
	}
	for _, group := range res.GetDistancesGroups() {
		dists := make([]float64, len(group))
		for i, d := range group {
			dists[i] = float64(d)
		}
		out.Distances = append(out.Distances, dists)
	}
	return out, nil
}

// Count returns the number of chunks stored in the collection.
func (c *collection) Count(ctx context.Context) (int, error) {
	count, err := c.col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", c.name, err)
	}
	return count, nil
}
