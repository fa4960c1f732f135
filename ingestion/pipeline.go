package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

// Default chunking parameters for generic file ingestion.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultBatchSize    = 100
)

// Entity files tend to be longer and more structured, so they chunk larger.
const (
	DefaultEntityChunkSize    = 1500
	DefaultEntityChunkOverlap = 300
	DefaultEntityBatchSize    = 50
)

// defaultPatterns cover text and code sources for generic ingestion.
var defaultPatterns = []string{"**/*.py", "**/*.md", "**/*.agent.md", "**/*.prompt.md"}

// entityPatterns cover entity definition files.
var entityPatterns = []string{"**/*.md", "**/*.agent.md", "**/*.prompt.md"}

// Ledger records per-file ingest state for change detection between runs.
// A nil ledger disables change tracking.
type Ledger interface {
	// Seen reports whether the path was previously ingested with this digest.
	Seen(path string, digest uint64) bool

	// Record stores the outcome of ingesting one file.
	Record(path string, digest uint64, chunkCount int, collection string) error
}

// Pipeline orchestrates document ingestion: discovery, splitting, identity
// assignment, metadata extraction and batched upserts into one collection.
type Pipeline struct {
	client     store.Client
	collection string
	folders    []string

	patterns    []string
	exclusions  map[string]bool
	skipMarkers bool

	chunkSize    int
	chunkOverlap int
	batchSize    int

	splitter  Splitter
	extractor MetadataExtractor
	ledger    Ledger
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkSize sets the approximate characters per chunk.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		p.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the character overlap between adjacent chunks.
// An overlap at or above the chunk size is clamped to a tenth of the size.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		p.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets the number of chunks upserted per store call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithPatterns replaces the file patterns used during discovery.
func WithPatterns(patterns ...string) Option {
	return func(p *Pipeline) error {
		if len(patterns) == 0 {
			return errors.New("at least one pattern required")
		}
		p.patterns = patterns
		return nil
	}
}

// WithExclusions lists basenames that discovery skips.
func WithExclusions(names ...string) Option {
	return func(p *Pipeline) error {
		for _, name := range names {
			p.exclusions[name] = true
		}
		return nil
	}
}

// WithExtractor replaces the metadata extraction strategy.
func WithExtractor(extractor MetadataExtractor) Option {
	return func(p *Pipeline) error {
		if extractor == nil {
			return errors.New("extractor cannot be nil")
		}
		p.extractor = extractor
		return nil
	}
}

// WithSplitter replaces the text splitter.
func WithSplitter(splitter Splitter) Option {
	return func(p *Pipeline) error {
		if splitter == nil {
			return errors.New("splitter cannot be nil")
		}
		p.splitter = splitter
		return nil
	}
}

// WithLedger attaches an ingest ledger. Files whose content digest matches
// the ledger entry from a previous run are skipped.
func WithLedger(ledger Ledger) Option {
	return func(p *Pipeline) error {
		p.ledger = ledger
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a generic file-ingestion pipeline targeting one
// collection.
func NewPipeline(client store.Client, collection string, folders []string, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}
	if len(folders) == 0 {
		return nil, ErrNoFolders
	}

	p := &Pipeline{
		client:       client,
		collection:   collection,
		folders:      folders,
		patterns:     defaultPatterns,
		exclusions:   make(map[string]bool),
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		batchSize:    DefaultBatchSize,
		extractor:    FileExtractor{},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.chunkOverlap = core.ClampOverlap(p.chunkSize, p.chunkOverlap)
	if p.splitter == nil {
		p.splitter = NewMarkdownSplitter(p.chunkSize, p.chunkOverlap)
	}

	return p, nil
}

// NewEntityPipeline creates a pipeline configured for entity definition
// files: markdown patterns, the entity-aware extractor, larger chunks, and
// marker-file filtering.
func NewEntityPipeline(client store.Client, collection string, folders []string, opts ...Option) (*Pipeline, error) {
	base := []Option{
		WithPatterns(entityPatterns...),
		WithChunkSize(DefaultEntityChunkSize),
		WithChunkOverlap(DefaultEntityChunkOverlap),
		WithBatchSize(DefaultEntityBatchSize),
	}

	p, err := NewPipeline(client, collection, folders, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	p.skipMarkers = true
	if _, generic := p.extractor.(FileExtractor); generic {
		p.extractor = NewEntityExtractor(p.logger)
	}
	return p, nil
}

// ChunkSize returns the effective chunk size.
func (p *Pipeline) ChunkSize() int { return p.chunkSize }

// ChunkOverlap returns the effective (clamped) chunk overlap.
func (p *Pipeline) ChunkOverlap() int { return p.chunkOverlap }

// Result summarizes one ingestion run.
type Result struct {
	FilesProcessed int
	FilesSkipped   int
	FilesFailed    int
	ChunksIngested int
}

// storeTarget describes the client endpoint for audit logging when the
// backend exposes one.
type storeTarget interface {
	BaseURL() string
}

// Ingest discovers, splits and upserts all matching files into the target
// collection. Per-file read failures are logged and skipped. Chunks
// accumulate across files and are upserted in fixed-size batches in discovery
// order; a failed batch is recorded and later batches still run. The returned
// error aggregates batch failures, alongside the partial Result.
func (p *Pipeline) Ingest(ctx context.Context) (Result, error) {
	target := "unknown"
	if st, ok := p.client.(storeTarget); ok {
		target = st.BaseURL()
	}
	p.logger.Info("starting ingestion", "store", target, "collection", p.collection)

	files, err := p.Discover()
	if err != nil {
		return Result{}, fmt.Errorf("discovery failed: %w", err)
	}
	if len(files) == 0 {
		p.logger.Info("no matching files found", "folders", p.folders)
		return Result{}, nil
	}
	p.logger.Info("discovered files", "count", len(files))

	type ledgerEntry struct {
		path   string
		digest uint64
		count  int
	}

	var (
		res     Result
		chunks  []core.Chunk
		entries []ledgerEntry
	)

	for _, filePath := range files {
		data, err := os.ReadFile(filePath)
		if err != nil {
			p.logger.Warn("could not read file", "file", filePath, "err", err)
			res.FilesFailed++
			continue
		}
		content := string(data)

		digest := core.ContentDigest(content)
		if p.ledger != nil && p.ledger.Seen(filePath, digest) {
			p.logger.Debug("file unchanged since last run", "file", filePath)
			res.FilesSkipped++
			continue
		}

		fileChunks, err := p.chunkFile(filePath, content)
		if err != nil {
			p.logger.Warn("could not split file", "file", filePath, "err", err)
			res.FilesFailed++
			continue
		}
		if len(fileChunks) == 0 {
			continue
		}

		res.FilesProcessed++
		chunks = append(chunks, fileChunks...)
		entries = append(entries, ledgerEntry{path: filePath, digest: digest, count: len(fileChunks)})
	}

	if len(chunks) == 0 {
		p.logger.Info("no chunks produced", "filesFailed", res.FilesFailed)
		return res, nil
	}

	coll, err := p.client.GetOrCreateCollection(ctx, p.collection)
	if err != nil {
		return res, fmt.Errorf("open collection %q: %w", p.collection, err)
	}

	ingested, err := p.upsertBatches(ctx, coll, chunks)
	res.ChunksIngested = ingested
	if err != nil {
		return res, err
	}

	// Ledger entries are written only after every batch landed, so an
	// interrupted run re-ingests its files next time.
	if p.ledger != nil {
		for _, entry := range entries {
			if err := p.ledger.Record(entry.path, entry.digest, entry.count, p.collection); err != nil {
				p.logger.Warn("could not record ledger entry", "file", entry.path, "err", err)
			}
		}
	}

	p.logger.Info("ingestion complete",
		"chunks", res.ChunksIngested,
		"files", res.FilesProcessed,
		"skipped", res.FilesSkipped,
		"failed", res.FilesFailed)
	return res, nil
}

// chunkFile splits one file and assigns ids and metadata to its chunks.
func (p *Pipeline) chunkFile(filePath, content string) ([]core.Chunk, error) {
	meta, body := p.extractor.Extract(filePath, content)
	entityName := p.extractor.EntityName(meta)

	parts, err := p.splitter.Split(body)
	if err != nil {
		return nil, err
	}

	chunks := make([]core.Chunk, 0, len(parts))
	for i, text := range parts {
		var id string
		if entityName != "" {
			id = core.EntityChunkID(entityName, filePath, i)
		} else {
			id = core.ChunkID(filePath, i)
		}

		chunkMeta := meta.Clone()
		chunkMeta[core.KeyChunkIndex] = i
		if entityName != "" {
			chunkMeta[core.KeyTotalChunks] = len(parts)
		}

		chunks = append(chunks, core.Chunk{ID: id, Text: text, Metadata: chunkMeta})
	}
	return chunks, nil
}

// upsertBatches writes chunks in fixed-size batches, preserving order. Batch
// failures are collected; prior batches stay written and later batches still
// run.
func (p *Pipeline) upsertBatches(ctx context.Context, coll store.Collection, chunks []core.Chunk) (int, error) {
	_, entityMode := p.extractor.(*EntityExtractor)

	var (
		ingested  int
		batchErrs []error
	)

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		batchNum := start/p.batchSize + 1

		ids := make([]string, len(batch))
		documents := make([]string, len(batch))
		metadatas := make([]core.Metadata, len(batch))
		for i, chunk := range batch {
			if err := core.ValidateChunk(&chunk, entityMode); err != nil {
				return ingested, err
			}
			ids[i] = chunk.ID
			documents[i] = chunk.Text
			metadatas[i] = chunk.Metadata
		}

		if err := coll.Upsert(ctx, ids, documents, metadatas); err != nil {
			p.logger.Error("batch upsert failed", "batch", batchNum, "size", len(batch), "err", err)
			batchErrs = append(batchErrs, fmt.Errorf("batch %d: %w", batchNum, err))
			continue
		}

		ingested += len(batch)
		p.logger.Info("batch complete", "batch", batchNum, "size", len(batch))
	}

	return ingested, errors.Join(batchErrs...)
}

// Stats describes the target collection and the pipeline configuration.
type Stats struct {
	Collection   string
	TotalChunks  int
	Folders      []string
	ChunkSize    int
	ChunkOverlap int
}

// CollectionStats reports the current chunk count of the target collection.
func (p *Pipeline) CollectionStats(ctx context.Context) (Stats, error) {
	coll, err := p.client.GetOrCreateCollection(ctx, p.collection)
	if err != nil {
		return Stats{}, err
	}
	count, err := coll.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Collection:   p.collection,
		TotalChunks:  count,
		Folders:      p.folders,
		ChunkSize:    p.chunkSize,
		ChunkOverlap: p.chunkOverlap,
	}, nil
}
