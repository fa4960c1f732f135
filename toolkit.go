package chromatool

import (
	"context"
	"log/slog"

	"github.com/ollieb89/chroma-tool/audit"
	"github.com/ollieb89/chroma-tool/enrichment"
	"github.com/ollieb89/chroma-tool/ingestion"
	"github.com/ollieb89/chroma-tool/ledger"
	"github.com/ollieb89/chroma-tool/retrieval"
	"github.com/ollieb89/chroma-tool/store"
	"github.com/ollieb89/chroma-tool/store/chroma"
)

// Toolkit bundles a vector store client with the ingestion ledger and hands
// out configured pipelines, retrievers and auditors.
type Toolkit struct {
	client store.Client
	ledger *ledger.Ledger
	logger *slog.Logger
}

// ToolkitOption configures a Toolkit.
type ToolkitOption func(*toolkitOptions)

type toolkitOptions struct {
	client     store.Client
	ledgerPath string
	logger     *slog.Logger
}

// WithClient supplies a pre-built store client instead of dialing a server.
func WithClient(client store.Client) ToolkitOption {
	return func(o *toolkitOptions) {
		o.client = client
	}
}

// WithLedgerPath enables the ingest ledger at the given directory, so
// unchanged files are skipped on repeat runs.
func WithLedgerPath(path string) ToolkitOption {
	return func(o *toolkitOptions) {
		o.ledgerPath = path
	}
}

// WithLogger sets the logger used by toolkit components.
func WithLogger(logger *slog.Logger) ToolkitOption {
	return func(o *toolkitOptions) {
		o.logger = logger
	}
}

// NewToolkit connects to the vector store at serverURL and opens the ingest
// ledger when configured. A client supplied via WithClient wins over
// serverURL.
func NewToolkit(serverURL string, opts ...ToolkitOption) (*Toolkit, error) {
	options := &toolkitOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	client := options.client
	if client == nil {
		var err error
		client, err = chroma.New(chroma.Config{BaseURL: serverURL})
		if err != nil {
			return nil, err
		}
	}

	var led *ledger.Ledger
	if options.ledgerPath != "" {
		var err error
		led, err = ledger.Open(options.ledgerPath)
		if err != nil {
			client.Close()
			return nil, err
		}
	}

	return &Toolkit{
		client: client,
		ledger: led,
		logger: options.logger,
	}, nil
}

// Close releases the store client and the ledger.
func (t *Toolkit) Close() error {
	if t.ledger != nil {
		if err := t.ledger.Close(); err != nil {
			t.logger.Error("error closing ledger", "err", err)
		}
	}
	if err := t.client.Close(); err != nil {
		t.logger.Error("error closing store client", "err", err)
		return err
	}
	return nil
}

// Client exposes the underlying store client.
func (t *Toolkit) Client() store.Client {
	return t.client
}

// Ledger returns the ingest ledger, or nil when none is configured.
func (t *Toolkit) Ledger() *ledger.Ledger {
	return t.ledger
}

// NewPipeline builds a generic file-ingestion pipeline wired to the
// toolkit's client, ledger and logger.
func (t *Toolkit) NewPipeline(collection string, folders []string, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(t.client, collection, folders, t.pipelineOptions(opts)...)
}

// NewEntityPipeline builds an entity-aware ingestion pipeline.
func (t *Toolkit) NewEntityPipeline(collection string, folders []string, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewEntityPipeline(t.client, collection, folders, t.pipelineOptions(opts)...)
}

func (t *Toolkit) pipelineOptions(opts []ingestion.Option) []ingestion.Option {
	base := []ingestion.Option{ingestion.WithLogger(t.logger)}
	if t.ledger != nil {
		base = append(base, ingestion.WithLedger(t.ledger))
	}
	return append(base, opts...)
}

// NewRetriever opens a retriever over one collection.
func (t *Toolkit) NewRetriever(ctx context.Context, collection string) (*retrieval.Retriever, error) {
	r, err := retrieval.NewRetriever(ctx, t.client, collection)
	if err != nil {
		return nil, err
	}
	r.SetLogger(t.logger)
	return r, nil
}

// NewSearcher opens a multi-collection searcher.
func (t *Toolkit) NewSearcher(ctx context.Context, collections []string) (*retrieval.MultiCollectionSearcher, error) {
	return retrieval.NewMultiCollectionSearcher(ctx, t.client, collections)
}

// NewEnricher builds a metadata enricher.
func (t *Toolkit) NewEnricher() *enrichment.Enricher {
	return enrichment.NewEnricher(enrichment.NewInferrer(t.logger), t.logger)
}

// NewAuditor opens a portfolio auditor over one collection.
func (t *Toolkit) NewAuditor(ctx context.Context, collection string, config audit.Config) (*audit.Auditor, error) {
	a, err := audit.NewAuditor(ctx, t.client, collection, config)
	if err != nil {
		return nil, err
	}
	a.SetLogger(t.logger)
	return a, nil
}
