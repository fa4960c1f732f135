package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	chromatool "github.com/ollieb89/chroma-tool"
	"github.com/ollieb89/chroma-tool/audit"
	"github.com/ollieb89/chroma-tool/enrichment"
	"github.com/ollieb89/chroma-tool/ingestion"
	"github.com/ollieb89/chroma-tool/retrieval"
)

func main() {
	app := &cli.App{
		Name:  "chroma-tool",
		Usage: "Ingest, enrich, query and audit document collections in a Chroma vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Chroma server URL",
				Value:   "http://localhost:8000",
				EnvVars: []string{"CHROMA_SERVER_URL"},
			},
			&cli.StringFlag{
				Name:  "ledger",
				Usage: "Path to the ingest ledger directory (enables skip-unchanged)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest text and code files into a collection",
				Action:    ingestCommand(false),
				ArgsUsage: "FOLDER [FOLDER...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Target collection name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Approximate characters per chunk",
						Value: ingestion.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Character overlap between adjacent chunks",
						Value: ingestion.DefaultChunkOverlap,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per upsert batch",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.StringSliceFlag{
						Name:  "pattern",
						Usage: "File glob to include (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Basename to skip during discovery (repeatable)",
					},
				},
			},
			{
				Name:      "ingest-entities",
				Usage:     "Ingest entity definition files with front matter metadata",
				Action:    ingestCommand(true),
				ArgsUsage: "FOLDER [FOLDER...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "collection",
						Aliases: []string{"c"},
						Usage:   "Target collection name",
						Value:   "agents_raw",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Approximate characters per chunk",
						Value: ingestion.DefaultEntityChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Character overlap between adjacent chunks",
						Value: ingestion.DefaultEntityChunkOverlap,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per upsert batch",
						Value: ingestion.DefaultEntityBatchSize,
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Basename to skip during discovery (repeatable)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Semantic search within one collection",
				Action:    queryCommand,
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Collection to query",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "results",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   retrieval.DefaultQueryResults,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Drop results with distance above this value (0 disables)",
					},
					&cli.BoolFlag{
						Name:  "context",
						Usage: "Print results as one prompt-ready context block",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Semantic search across several collections",
				Action:    searchCommand,
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Collection to search (repeatable)",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "results",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   retrieval.DefaultSemanticResults,
					},
					&cli.BoolFlag{
						Name:  "ranked",
						Usage: "Merge results into one distance-ordered list",
					},
				},
			},
			{
				Name:   "enrich",
				Usage:  "Infer category, tech stack and description metadata for a collection",
				Action: enrichCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "collection",
						Aliases: []string{"c"},
						Usage:   "Collection to enrich",
						Value:   "agents_raw",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Documents per page",
						Value: enrichment.DefaultEnrichBatchSize,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Infer metadata without writing updates",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-enrich documents that already carry a category",
					},
				},
			},
			{
				Name:   "audit",
				Usage:  "Analyze portfolio coverage and consolidation opportunities",
				Action: auditCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "collection",
						Aliases: []string{"c"},
						Usage:   "Collection to audit",
						Value:   "agents_raw",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Tech stack overlap required to flag a pair",
						Value: audit.DefaultSimilarityThreshold,
					},
					&cli.IntFlag{
						Name:  "max-candidates",
						Usage: "Maximum consolidation pairs to report",
						Value: audit.DefaultMaxCandidates,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show collection chunk counts and ledger totals",
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openToolkit(c *cli.Context) (*chromatool.Toolkit, error) {
	opts := []chromatool.ToolkitOption{}
	if ledgerPath := c.String("ledger"); ledgerPath != "" {
		opts = append(opts, chromatool.WithLedgerPath(ledgerPath))
	}
	return chromatool.NewToolkit(c.String("server"), opts...)
}

func ingestCommand(entities bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		folders := c.Args().Slice()
		if len(folders) == 0 {
			return fmt.Errorf("at least one folder is required")
		}

		tk, err := openToolkit(c)
		if err != nil {
			return err
		}
		defer tk.Close()

		opts := []ingestion.Option{
			ingestion.WithChunkSize(c.Int("chunk-size")),
			ingestion.WithChunkOverlap(c.Int("chunk-overlap")),
			ingestion.WithBatchSize(c.Int("batch-size")),
		}
		if exclude := c.StringSlice("exclude"); len(exclude) > 0 {
			opts = append(opts, ingestion.WithExclusions(exclude...))
		}
		if patterns := c.StringSlice("pattern"); len(patterns) > 0 {
			opts = append(opts, ingestion.WithPatterns(patterns...))
		}

		var pipeline *ingestion.Pipeline
		if entities {
			pipeline, err = tk.NewEntityPipeline(c.String("collection"), folders, opts...)
		} else {
			pipeline, err = tk.NewPipeline(c.String("collection"), folders, opts...)
		}
		if err != nil {
			return err
		}

		res, err := pipeline.Ingest(context.Background())
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		fmt.Printf("Ingested %d chunks from %d files (%d skipped, %d failed)\n",
			res.ChunksIngested, res.FilesProcessed, res.FilesSkipped, res.FilesFailed)
		return nil
	}
}

func queryCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("query text is required")
	}

	tk, err := openToolkit(c)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx := context.Background()
	r, err := tk.NewRetriever(ctx, c.String("collection"))
	if err != nil {
		return err
	}

	if c.Bool("context") {
		fmt.Println(r.Context(ctx, queryText, c.Int("results"), true))
		return nil
	}

	var results []retrieval.Result
	if threshold := c.Float64("threshold"); threshold > 0 {
		results = r.QuerySemantic(ctx, queryText, c.Int("results"), threshold)
	} else {
		results = r.Query(ctx, queryText, c.Int("results"))
	}

	printResults(results)
	return nil
}

func searchCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("query text is required")
	}

	tk, err := openToolkit(c)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx := context.Background()
	searcher, err := tk.NewSearcher(ctx, c.StringSlice("collection"))
	if err != nil {
		return err
	}

	var results []retrieval.Result
	if c.Bool("ranked") {
		results = searcher.SearchRanked(ctx, queryText, c.Int("results"))
	} else {
		results = searcher.Search(ctx, queryText, c.Int("results"))
	}

	printResults(results)
	return nil
}

func printResults(results []retrieval.Result) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, res := range results {
		header := fmt.Sprintf("%d. distance=%.4f", i+1, res.Distance)
		if res.Collection != "" {
			header += " collection=" + res.Collection
		}
		if src := res.Metadata.String("source"); src != "" {
			header += " source=" + src
		}
		fmt.Println(header)
		fmt.Println(indent(snippet(res.Document, 300), "   "))
	}
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) > max {
		text = text[:max] + "..."
	}
	return text
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func enrichCommand(c *cli.Context) error {
	tk, err := openToolkit(c)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx := context.Background()
	coll, err := tk.Client().GetOrCreateCollection(ctx, c.String("collection"))
	if err != nil {
		return err
	}

	summary, err := tk.NewEnricher().EnrichCollection(ctx, coll, enrichment.Options{
		BatchSize:    c.Int("batch-size"),
		DryRun:       c.Bool("dry-run"),
		SkipExisting: !c.Bool("force"),
	})
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	fmt.Printf("Enriched %d of %d documents (%d skipped, %d failed)\n",
		summary.Enriched, summary.Total, summary.Skipped, summary.Failed)
	if summary.DryRun {
		fmt.Println("Dry run: no changes were written.")
	}
	for _, id := range summary.FailedIDs {
		fmt.Printf("  failed: %s\n", id)
	}
	return nil
}

func auditCommand(c *cli.Context) error {
	tk, err := openToolkit(c)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx := context.Background()
	auditor, err := tk.NewAuditor(ctx, c.String("collection"), audit.Config{
		SimilarityThreshold: c.Float64("threshold"),
		MaxCandidates:       c.Int("max-candidates"),
	})
	if err != nil {
		return err
	}

	summary, err := auditor.Audit(ctx)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	fmt.Println(audit.FormatReport(summary))
	return nil
}

func statsCommand(c *cli.Context) error {
	tk, err := openToolkit(c)
	if err != nil {
		return err
	}
	defer tk.Close()

	ctx := context.Background()
	collections, err := tk.Client().ListCollections(ctx, 0, 0)
	if err != nil {
		return err
	}

	if len(collections) == 0 {
		fmt.Println("No collections.")
	}
	for _, coll := range collections {
		count, err := coll.Count(ctx)
		if err != nil {
			fmt.Printf("%-30s (count unavailable: %v)\n", coll.Name(), err)
			continue
		}
		fmt.Printf("%-30s %d chunks\n", coll.Name(), count)
	}

	if led := tk.Ledger(); led != nil {
		summaries, err := led.Summarize()
		if err != nil {
			return err
		}
		fmt.Println("\nLedger:")
		for name, s := range summaries {
			fmt.Printf("%-30s %d files, %d chunks\n", name, s.Files, s.Chunks)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
