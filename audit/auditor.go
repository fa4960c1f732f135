package audit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

// Defaults for portfolio analysis.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultMaxCandidates       = 10
	DefaultPageSize            = 100

	// Pairs at or above this overlap with the same name are treated as
	// duplicate records of one entity, not consolidation candidates.
	duplicateOverlap = 0.99
)

// keyEntityType is an optional metadata key naming the entity kind.
const keyEntityType = "entity_type"

// DuplicatePolicy decides when two records are the same entity rather than
// a consolidation candidate pair.
type DuplicatePolicy int

const (
	// DuplicateByNameAndPath treats records as the same entity only when
	// both name and path match.
	DuplicateByNameAndPath DuplicatePolicy = iota

	// DuplicateByName treats records with equal names as the same entity
	// regardless of path.
	DuplicateByName
)

// Config tunes an audit run. The zero value uses defaults.
type Config struct {
	SimilarityThreshold float64
	MaxCandidates       int
	PageSize            int
	DuplicatePolicy     DuplicatePolicy
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	return c
}

// LabelCount pairs a label with how many entities carry it.
type LabelCount struct {
	Label string
	Count int
}

// Balance summarizes category distribution.
type Balance struct {
	MostCommon  LabelCount
	LeastCommon LabelCount
	Spread      int
}

// Coverage is the result of analyzing category and tech stack
// representation across the portfolio.
type Coverage struct {
	TotalEntities int
	Categories    []LabelCount
	TopTechStacks []LabelCount
	Types         map[string]int
	Gaps          []string
	Balance       Balance
}

// Candidate is a pair of entities similar enough to consider merging.
type Candidate struct {
	First          string
	FirstPath      string
	Second         string
	SecondPath     string
	Category       string
	Overlap        float64
	SharedTechs    []string
	Recommendation string
}

// Summary is the structured outcome of a full audit.
type Summary struct {
	Collection  string
	GeneratedAt time.Time
	EntityCount int
	Coverage    Coverage
	Candidates  []Candidate
	HealthScore int
}

// Auditor loads entities from one collection and analyzes the portfolio.
type Auditor struct {
	collection store.Collection
	config     Config
	logger     *slog.Logger

	entities []core.Entity
}

// NewAuditor opens the named collection for analysis.
func NewAuditor(ctx context.Context, client store.Client, collection string, config Config) (*Auditor, error) {
	if client == nil {
		return nil, fmt.Errorf("client required")
	}
	coll, err := client.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}
	return &Auditor{
		collection: coll,
		config:     config.withDefaults(),
		logger:     slog.Default(),
	}, nil
}

// SetLogger replaces the default logger.
func (a *Auditor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// LoadEntities pages through the collection and reconstructs entities by
// grouping chunks that share a source key. Tech stacks are unioned across
// a file's chunks.
func (a *Auditor) LoadEntities(ctx context.Context) ([]core.Entity, error) {
	byKey := make(map[string]*core.Entity)
	var order []string

	for offset := 0; ; offset += a.config.PageSize {
		page, err := a.collection.Get(ctx, store.GetOptions{Limit: a.config.PageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("load entities: %w", err)
		}
		if len(page.IDs) == 0 {
			break
		}

		for i, id := range page.IDs {
			var meta core.Metadata
			if i < len(page.Metadatas) && page.Metadatas[i] != nil {
				meta = page.Metadatas[i]
			} else {
				meta = core.Metadata{}
			}

			key := core.SourceKey(id)
			entity, ok := byKey[key]
			if !ok {
				entity = &core.Entity{
					Name:             entityName(key, meta),
					Path:             entityPath(key, meta),
					Type:             metaOr(meta, keyEntityType, "entity"),
					Category:         metaOr(meta, core.KeyCategory, "unknown"),
					TechStack:        core.DecodeTags(meta.String(core.KeyTechStack)),
					Description:      meta.String(core.KeyDescription),
					Source:           metaOr(meta, core.KeySource, "unknown"),
					SourceCollection: meta.String(core.KeySourceCollection),
				}
				byKey[key] = entity
				order = append(order, key)
			} else {
				entity.TechStack = unionTags(entity.TechStack, core.DecodeTags(meta.String(core.KeyTechStack)))
			}
			entity.ChunkCount++
		}

		if len(page.IDs) < a.config.PageSize {
			break
		}
	}

	entities := make([]core.Entity, 0, len(order))
	for _, key := range order {
		entities = append(entities, *byKey[key])
	}
	a.entities = entities
	a.logger.Info("loaded entities", "collection", a.collection.Name(), "count", len(entities))
	return entities, nil
}

// entityName prefers the curated entity name, then the key's last path
// segment.
func entityName(key string, meta core.Metadata) string {
	if name := meta.String(core.KeyEntity); name != "" {
		return name
	}
	return path.Base(entityPath(key, meta))
}

// entityPath strips the entity prefix from a source key when one is
// present, leaving the normalized file path.
func entityPath(key string, meta core.Metadata) string {
	if name := meta.String(core.KeyEntity); name != "" {
		if rest, ok := strings.CutPrefix(key, name+":"); ok {
			return rest
		}
	}
	return key
}

func metaOr(meta core.Metadata, key, fallback string) string {
	if v := meta.String(key); v != "" {
		return v
	}
	return fallback
}

func unionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, tag := range a {
		seen[tag] = true
	}
	for _, tag := range b {
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// AnalyzeCoverage computes category, type and tech stack distribution over
// the loaded entities, loading them first if needed.
func (a *Auditor) AnalyzeCoverage(ctx context.Context) (Coverage, error) {
	if a.entities == nil {
		if _, err := a.LoadEntities(ctx); err != nil {
			return Coverage{}, err
		}
	}

	categories := make(map[string]int)
	techs := make(map[string]int)
	types := make(map[string]int)
	for _, entity := range a.entities {
		categories[entity.Category]++
		types[entity.Type]++
		for _, tech := range entity.TechStack {
			tech = strings.TrimSpace(tech)
			if tech != "" {
				techs[tech]++
			}
		}
	}

	techRanked := rankCounts(techs)
	var gaps []string
	for _, lc := range techRanked {
		if lc.Count < 2 {
			gaps = append(gaps, lc.Label)
		}
	}
	sort.Strings(gaps)
	if len(gaps) > 10 {
		gaps = gaps[:10]
	}

	categoryRanked := rankCounts(categories)
	coverage := Coverage{
		TotalEntities: len(a.entities),
		Categories:    topN(categoryRanked, 10),
		TopTechStacks: topN(techRanked, 15),
		Types:         types,
		Gaps:          gaps,
	}
	if len(categoryRanked) > 0 {
		coverage.Balance = Balance{
			MostCommon:  categoryRanked[0],
			LeastCommon: categoryRanked[len(categoryRanked)-1],
			Spread:      len(categoryRanked),
		}
	}
	return coverage, nil
}

// rankCounts orders labels by descending count, ties alphabetical.
func rankCounts(counts map[string]int) []LabelCount {
	ranked := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		ranked = append(ranked, LabelCount{Label: label, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Label < ranked[j].Label
	})
	return ranked
}

func topN(ranked []LabelCount, n int) []LabelCount {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// FindConsolidationCandidates compares entities within each category by
// tech stack overlap and returns the highest-overlap pairs. Pairs with no
// tech stack on either side are skipped, as are duplicate records of a
// single entity.
func (a *Auditor) FindConsolidationCandidates(ctx context.Context) ([]Candidate, error) {
	if a.entities == nil {
		if _, err := a.LoadEntities(ctx); err != nil {
			return nil, err
		}
	}

	a.logger.Info("analyzing consolidation opportunities", "entities", len(a.entities))

	byCategory := make(map[string][]core.Entity)
	var categoryOrder []string
	for _, entity := range a.entities {
		if _, ok := byCategory[entity.Category]; !ok {
			categoryOrder = append(categoryOrder, entity.Category)
		}
		byCategory[entity.Category] = append(byCategory[entity.Category], entity)
	}

	var candidates []Candidate
	for _, category := range categoryOrder {
		group := byCategory[category]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				first, second := group[i], group[j]
				if a.sameEntity(first, second) {
					continue
				}

				overlap, shared := techOverlap(first.TechStack, second.TechStack)
				if overlap >= duplicateOverlap && first.Name == second.Name {
					continue
				}
				if overlap < a.config.SimilarityThreshold {
					continue
				}

				candidates = append(candidates, Candidate{
					First:       first.Name,
					FirstPath:   first.Path,
					Second:      second.Name,
					SecondPath:  second.Path,
					Category:    category,
					Overlap:     overlap,
					SharedTechs: shared,
					Recommendation: fmt.Sprintf(
						"Consider merging %s and %s (share %.0f%% tech stack in %s)",
						first.Name, second.Name, overlap*100, category),
				})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Overlap > candidates[j].Overlap
	})
	if len(candidates) > a.config.MaxCandidates {
		candidates = candidates[:a.config.MaxCandidates]
	}

	a.logger.Info("found consolidation candidates", "count", len(candidates))
	return candidates, nil
}

// sameEntity applies the duplicate policy.
func (a *Auditor) sameEntity(first, second core.Entity) bool {
	switch a.config.DuplicatePolicy {
	case DuplicateByName:
		return first.Name == second.Name
	default:
		return first.Name == second.Name && first.Path == second.Path
	}
}

// techOverlap scores two tag sets by shared fraction of the larger set.
// Both sets must be non-empty to score; otherwise overlap is zero.
func techOverlap(first, second []string) (float64, []string) {
	setA := tagSet(first)
	setB := tagSet(second)
	if len(setA) == 0 || len(setB) == 0 {
		return 0, nil
	}

	var shared []string
	for tag := range setA {
		if setB[tag] {
			shared = append(shared, tag)
		}
	}
	sort.Strings(shared)

	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(len(shared)) / float64(denom), shared
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			set[tag] = true
		}
	}
	return set
}

// Audit runs the full analysis and returns a structured summary. The health
// score starts at 100 and loses ten points per consolidation candidate.
func (a *Auditor) Audit(ctx context.Context) (Summary, error) {
	coverage, err := a.AnalyzeCoverage(ctx)
	if err != nil {
		return Summary{}, err
	}
	candidates, err := a.FindConsolidationCandidates(ctx)
	if err != nil {
		return Summary{}, err
	}

	health := 100 - len(candidates)*10
	if health < 0 {
		health = 0
	}

	return Summary{
		Collection:  a.collection.Name(),
		GeneratedAt: time.Now().UTC(),
		EntityCount: len(a.entities),
		Coverage:    coverage,
		Candidates:  candidates,
		HealthScore: health,
	}, nil
}
