package enrichment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/ollieb89/chroma-tool/core"
)

func TestInferName(t *testing.T) {
	inf := NewInferrer(nil)

	tests := []struct {
		name     string
		text     string
		filename string
		want     string
	}{
		{"from filename", "# Whatever", "code-reviewer.md", "code-reviewer"},
		{"filename path joined", "", "agents/helper.md", "agents-helper"},
		{"too short filename", "# Deploy Helper\n", "a.md", "deploy-helper"},
		{"title slugified", "# Frontend Design Review\nbody", "", "frontend-design-review"},
		{"nothing usable", "#\n\n", "", "unknown-entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inf.InferName(tt.text, tt.filename))
		})
	}
}

func TestInferCategory(t *testing.T) {
	inf := NewInferrer(nil)

	tests := []struct {
		name     string
		text     string
		want     string
		minScore float64
	}{
		{"frontend", "Build react nextjs components with typescript and tailwind styling", "frontend", 0.3},
		{"security", "Configure oauth and jwt auth with encryption per owasp guidance", "security", 0.5},
		{"devops", "Deploy with docker and kubernetes infrastructure", "devops", 0.5},
		{"empty", "", "unknown", 0},
		{"no keywords", "zzz qqq", "unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, conf := inf.InferCategory(tt.text)
			assert.Equal(t, tt.want, category)
			assert.GreaterOrEqual(t, conf, tt.minScore)
			assert.LessOrEqual(t, conf, 0.99)
		})
	}
}

func TestInferCategory_UsesOnlyLeadingContent(t *testing.T) {
	inf := NewInferrer(nil)

	// Keywords past the first 1000 characters must not count.
	padding := make([]byte, 1100)
	for i := range padding {
		padding[i] = 'z'
	}
	category, conf := inf.InferCategory(string(padding) + " docker kubernetes deploy")
	assert.Equal(t, "unknown", category)
	assert.Zero(t, conf)
}

func TestInferTechStack(t *testing.T) {
	inf := NewInferrer(nil)

	techs, conf := inf.InferTechStack("We use react with typescript. react is great. Also docker.")
	assert.Contains(t, techs, "react")
	assert.Contains(t, techs, "typescript")
	assert.Contains(t, techs, "docker")
	assert.Equal(t, "react", techs[0], "most frequent term ranks first")
	assert.Greater(t, conf, 0.0)
	assert.LessOrEqual(t, conf, 1.0)

	empty, conf := inf.InferTechStack("")
	assert.Empty(t, empty)
	assert.Zero(t, conf)
}

func TestInferTechStack_CapsAtTen(t *testing.T) {
	inf := NewInferrer(nil)

	techs, conf := inf.InferTechStack(
		"react nextjs vue svelte angular typescript jsx tailwind shadcn storybook fastapi flask django")
	assert.Len(t, techs, 10)
	assert.Equal(t, 1.0, conf)
}

func TestInferDescription(t *testing.T) {
	inf := NewInferrer(nil)

	text := "# Title\n\nFirst paragraph of the body.\n\n## Heading skipped\nSecond paragraph."
	desc, conf := inf.InferDescription(text, 200)
	assert.Contains(t, desc, "First paragraph of the body.")
	assert.NotContains(t, desc, "Heading skipped")
	assert.Greater(t, conf, 0.0)

	desc, conf = inf.InferDescription("", 200)
	assert.Empty(t, desc)
	assert.Zero(t, conf)
}

func TestInferDescription_Truncates(t *testing.T) {
	inf := NewInferrer(nil)

	long := "# T\n"
	for i := 0; i < 30; i++ {
		long += "some body line with enough words to keep going\n"
	}
	desc, conf := inf.InferDescription(long, 100)
	assert.LessOrEqual(t, len(desc), 100)
	assert.Equal(t, 1.0, conf)
}

func TestInferDescription_TruncatesAtRuneBoundary(t *testing.T) {
	inf := NewInferrer(nil)

	// 7 two-byte runes; a 9-byte limit falls inside the fifth rune.
	text := "# T\n" + strings.Repeat("é", 7)
	desc, _ := inf.InferDescription(text, 9)

	assert.Equal(t, strings.Repeat("é", 4), desc)
	assert.True(t, utf8.ValidString(desc))
}

func TestEnrich_OverallConfidence(t *testing.T) {
	inf := NewInferrer(nil)

	enriched := inf.Enrich("doc:0", "# Review\n\nTest react components with playwright e2e specs.", "review.md")
	assert.Equal(t, "review", enriched.Name)
	assert.NotEqual(t, "unknown", enriched.Category)
	assert.NotEmpty(t, enriched.TechStack)
	expected := (enriched.Confidence.Category + enriched.Confidence.TechStack + enriched.Confidence.Description) / 3
	assert.InDelta(t, expected, enriched.Confidence.Overall, 1e-9)
}

func TestCompare(t *testing.T) {
	inf := NewInferrer(nil)

	enriched := EnrichedMetadata{
		Category:  "frontend",
		TechStack: []string{"react", "typescript"},
		Confidence: Confidence{
			Overall: 0.5,
		},
	}
	known := core.Metadata{
		core.KeyCategory:  "frontend",
		core.KeyTechStack: `["react","vue"]`,
	}

	report := inf.Compare(enriched, known)
	assert.True(t, report.CategoryMatch)
	assert.Equal(t, []string{"react"}, report.TechStackOverlap)
	assert.Equal(t, []string{"react", "vue"}, report.TechStackActual)
	assert.Equal(t, 0.5, report.OverallConfidence)
}
