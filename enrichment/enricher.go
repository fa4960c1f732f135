package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

// Metadata keys written by enrichment, beyond the curated schema.
const (
	keyEnrichmentConfidence = "enrichment_confidence"
	keyEnriched             = "enriched"
)

// DefaultEnrichBatchSize is the page size used when walking a collection.
const DefaultEnrichBatchSize = 100

// Options controls a collection enrichment run.
type Options struct {
	// BatchSize is the page size for reading documents. Zero means
	// DefaultEnrichBatchSize.
	BatchSize int

	// DryRun infers metadata without writing updates back.
	DryRun bool

	// SkipExisting leaves documents alone when they already carry a
	// category.
	SkipExisting bool
}

// Summary reports the outcome of one enrichment run.
type Summary struct {
	Collection string
	Total      int
	Processed  int
	Enriched   int
	Skipped    int
	Failed     int
	FailedIDs  []string
	DryRun     bool
}

// Enricher walks a collection and writes inferred metadata back to
// documents that lack it.
type Enricher struct {
	inferrer *Inferrer
	logger   *slog.Logger
}

// NewEnricher creates an Enricher. Nil arguments fall back to defaults.
func NewEnricher(inferrer *Inferrer, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if inferrer == nil {
		inferrer = NewInferrer(logger)
	}
	return &Enricher{inferrer: inferrer, logger: logger}
}

// EnrichCollection infers and persists metadata for every document in the
// collection, paging through it in batches. Per-document update failures are
// recorded in the summary and do not stop the run.
func (e *Enricher) EnrichCollection(ctx context.Context, coll store.Collection, opts Options) (Summary, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultEnrichBatchSize
	}

	total, err := coll.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count collection %q: %w", coll.Name(), err)
	}

	summary := Summary{
		Collection: coll.Name(),
		Total:      total,
		DryRun:     opts.DryRun,
	}
	e.logger.Info("starting enrichment", "collection", coll.Name(), "documents", total)

	for offset := 0; offset < total; offset += batchSize {
		page, err := coll.Get(ctx, store.GetOptions{Limit: batchSize, Offset: offset})
		if err != nil {
			return summary, fmt.Errorf("read batch at offset %d: %w", offset, err)
		}

		e.logger.Info("processing batch", "batch", offset/batchSize+1, "size", len(page.IDs))

		for i, id := range page.IDs {
			summary.Processed++

			meta := page.Metadatas[i]
			if meta == nil {
				meta = core.Metadata{}
			}
			if opts.SkipExisting && meta.String(core.KeyCategory) != "" {
				summary.Skipped++
				continue
			}

			var text string
			if i < len(page.Documents) {
				text = page.Documents[i]
			}
			enriched := e.inferrer.Enrich(id, text, meta.String(core.KeyFilename))

			if !opts.DryRun {
				updated := meta.Clone()
				updated[core.KeyCategory] = enriched.Category
				updated[core.KeyTechStack] = core.EncodeTags(enriched.TechStack)
				updated[core.KeyDescription] = enriched.Description
				updated[keyEnrichmentConfidence] = enriched.Confidence.Overall
				updated[keyEnriched] = "true"

				err := coll.Update(ctx, []string{id}, []string{text}, []core.Metadata{updated})
				if err != nil {
					e.logger.Error("could not update document", "id", id, "err", err)
					summary.Failed++
					summary.FailedIDs = append(summary.FailedIDs, id)
					continue
				}
			}

			summary.Enriched++
		}
	}

	e.logger.Info("enrichment complete",
		"enriched", summary.Enriched,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}
