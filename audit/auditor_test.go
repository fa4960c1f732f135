package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
	"github.com/ollieb89/chroma-tool/store/memstore"
)

// seedPortfolio loads three frontend entities (two near-duplicates) and one
// backend entity, with the first entity split across two chunks.
func seedPortfolio(t *testing.T) store.Client {
	t.Helper()
	client := memstore.New()
	coll, err := client.GetOrCreateCollection(context.Background(), "agents_raw")
	require.NoError(t, err)

	ids := []string{
		"ui-helper:agents/ui-helper.md:0",
		"ui-helper:agents/ui-helper.md:1",
		"ui-builder:agents/ui-builder.md:0",
		"style-guide:agents/style-guide.md:0",
		"db-admin:agents/db-admin.md:0",
	}
	docs := []string{"a", "b", "c", "d", "e"}
	metas := []core.Metadata{
		{
			core.KeyEntity: "ui-helper", core.KeyCategory: "frontend",
			core.KeyTechStack: `["react","typescript"]`, core.KeySource: "agents/ui-helper.md",
		},
		{
			core.KeyEntity: "ui-helper", core.KeyCategory: "frontend",
			core.KeyTechStack: `["tailwind"]`, core.KeySource: "agents/ui-helper.md",
		},
		{
			core.KeyEntity: "ui-builder", core.KeyCategory: "frontend",
			core.KeyTechStack: `["react","typescript","tailwind"]`, core.KeySource: "agents/ui-builder.md",
		},
		{
			core.KeyEntity: "style-guide", core.KeyCategory: "frontend",
			core.KeyTechStack: `[]`, core.KeySource: "agents/style-guide.md",
		},
		{
			core.KeyEntity: "db-admin", core.KeyCategory: "backend",
			core.KeyTechStack: `["postgresql"]`, core.KeySource: "agents/db-admin.md",
		},
	}
	require.NoError(t, coll.Upsert(context.Background(), ids, docs, metas))
	return client
}

func TestLoadEntities_GroupsChunks(t *testing.T) {
	client := seedPortfolio(t)
	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)

	entities, err := a.LoadEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 4)

	first := entities[0]
	assert.Equal(t, "ui-helper", first.Name)
	assert.Equal(t, "agents/ui-helper.md", first.Path)
	assert.Equal(t, 2, first.ChunkCount)
	assert.ElementsMatch(t, []string{"react", "typescript", "tailwind"}, first.TechStack)
	assert.Equal(t, "frontend", first.Category)
}

func TestLoadEntities_Paged(t *testing.T) {
	client := seedPortfolio(t)
	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{PageSize: 2})
	require.NoError(t, err)

	entities, err := a.LoadEntities(context.Background())
	require.NoError(t, err)
	assert.Len(t, entities, 4)
}

func TestAnalyzeCoverage(t *testing.T) {
	client := seedPortfolio(t)
	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)

	coverage, err := a.AnalyzeCoverage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, coverage.TotalEntities)
	require.NotEmpty(t, coverage.Categories)
	assert.Equal(t, LabelCount{Label: "frontend", Count: 3}, coverage.Categories[0])
	assert.Equal(t, LabelCount{Label: "frontend", Count: 3}, coverage.Balance.MostCommon)
	assert.Equal(t, LabelCount{Label: "backend", Count: 1}, coverage.Balance.LeastCommon)
	assert.Equal(t, 2, coverage.Balance.Spread)

	// react, typescript and tailwind appear on two entities each;
	// postgresql only once.
	assert.Contains(t, coverage.Gaps, "postgresql")
	assert.NotContains(t, coverage.Gaps, "react")
}

func TestFindConsolidationCandidates(t *testing.T) {
	client := seedPortfolio(t)
	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)

	candidates, err := a.FindConsolidationCandidates(context.Background())
	require.NoError(t, err)

	// ui-helper and ui-builder share all three techs; style-guide has no
	// tech stack and db-admin sits alone in its category.
	require.Len(t, candidates, 1)
	cand := candidates[0]
	assert.Equal(t, "ui-helper", cand.First)
	assert.Equal(t, "ui-builder", cand.Second)
	assert.Equal(t, "frontend", cand.Category)
	assert.InDelta(t, 1.0, cand.Overlap, 1e-9)
	assert.ElementsMatch(t, []string{"react", "typescript", "tailwind"}, cand.SharedTechs)
	assert.Contains(t, cand.Recommendation, "ui-helper")
}

func TestFindConsolidationCandidates_Threshold(t *testing.T) {
	client := memstore.New()
	coll, err := client.GetOrCreateCollection(context.Background(), "agents_raw")
	require.NoError(t, err)

	// Overlap 2/3 sits below the default 0.7 threshold.
	require.NoError(t, coll.Upsert(context.Background(),
		[]string{"a:x.md:0", "b:y.md:0"},
		[]string{"a", "b"},
		[]core.Metadata{
			{core.KeyEntity: "a", core.KeyCategory: "frontend", core.KeyTechStack: `["react","vue","svelte"]`},
			{core.KeyEntity: "b", core.KeyCategory: "frontend", core.KeyTechStack: `["react","vue"]`},
		}))

	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)
	candidates, err := a.FindConsolidationCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// A lower threshold admits the pair.
	a2, err := NewAuditor(context.Background(), client, "agents_raw", Config{SimilarityThreshold: 0.6})
	require.NoError(t, err)
	candidates, err = a2.FindConsolidationCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 2.0/3.0, candidates[0].Overlap, 1e-9)
}

func TestFindConsolidationCandidates_SkipsSameNameDuplicates(t *testing.T) {
	client := memstore.New()
	coll, err := client.GetOrCreateCollection(context.Background(), "agents_raw")
	require.NoError(t, err)

	// The same entity ingested from two trees: full overlap, same name.
	require.NoError(t, coll.Upsert(context.Background(),
		[]string{"helper:a/helper.md:0", "helper:b/helper.md:0"},
		[]string{"a", "b"},
		[]core.Metadata{
			{core.KeyEntity: "helper", core.KeyCategory: "devops", core.KeyTechStack: `["docker"]`},
			{core.KeyEntity: "helper", core.KeyCategory: "devops", core.KeyTechStack: `["docker"]`},
		}))

	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)
	candidates, err := a.FindConsolidationCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestTechOverlap(t *testing.T) {
	tests := []struct {
		name   string
		first  []string
		second []string
		want   float64
		shared []string
	}{
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1.0, []string{"a", "b"}},
		{"partial", []string{"a", "b", "c"}, []string{"a", "b"}, 2.0 / 3.0, []string{"a", "b"}},
		{"disjoint", []string{"a"}, []string{"b"}, 0, nil},
		{"first empty", nil, []string{"a"}, 0, nil},
		{"both empty", nil, nil, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overlap, shared := techOverlap(tt.first, tt.second)
			assert.InDelta(t, tt.want, overlap, 1e-9)
			assert.Equal(t, tt.shared, shared)
		})
	}
}

func TestAudit_HealthScore(t *testing.T) {
	client := seedPortfolio(t)
	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)

	summary, err := a.Audit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "agents_raw", summary.Collection)
	assert.Equal(t, 4, summary.EntityCount)
	assert.Equal(t, 90, summary.HealthScore, "one candidate costs ten points")
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestFormatReport(t *testing.T) {
	client := seedPortfolio(t)
	a, err := NewAuditor(context.Background(), client, "agents_raw", Config{})
	require.NoError(t, err)

	summary, err := a.Audit(context.Background())
	require.NoError(t, err)

	report := FormatReport(summary)
	assert.Contains(t, report, "PORTFOLIO AUDIT REPORT: agents_raw")
	assert.Contains(t, report, "Total entities:           4")
	assert.Contains(t, report, "frontend")
	assert.Contains(t, report, "Health score:             90/100")
	assert.Contains(t, report, "agents/ui-builder.md")
}

func TestFormatReport_Empty(t *testing.T) {
	report := FormatReport(Summary{Collection: "empty", HealthScore: 100})
	assert.Contains(t, report, "No significant gaps detected")
	assert.Contains(t, report, "No consolidation needed")
}
