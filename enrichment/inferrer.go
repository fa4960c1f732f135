package enrichment

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/ollieb89/chroma-tool/core"
)

// DefaultMaxDescription bounds inferred descriptions.
const DefaultMaxDescription = 200

// fallbackName is used when neither filename nor content yields a name.
const fallbackName = "unknown-entity"

// keywordGroup pairs a label with the keywords that vote for it. Groups are
// ordered so tie-breaking is deterministic.
type keywordGroup struct {
	label    string
	keywords []string
}

// techVocabulary lists known technology terms grouped by domain. Matching is
// substring-based over lowercased content.
var techVocabulary = []keywordGroup{
	{"frontend", []string{"react", "nextjs", "vue", "svelte", "angular", "typescript", "jsx", "tailwind", "shadcn", "storybook"}},
	{"backend", []string{"fastapi", "flask", "django", "express", "nodejs", "python", "golang", "rust", "java", "api", "rest"}},
	{"testing", []string{"playwright", "vitest", "pytest", "jest", "mocha", "cucumber", "e2e", "testing", "qa", "test"}},
	{"security", []string{"authentication", "oauth", "jwt", "encryption", "owasp", "security", "cryptography", "password", "auth"}},
	{"devops", []string{"docker", "kubernetes", "ci/cd", "github actions", "gitlab", "jenkins", "terraform", "ansible", "devops"}},
	{"database", []string{"postgresql", "mongodb", "mysql", "sql", "sqlalchemy", "prisma", "orm", "database", "redis"}},
	{"ai_ml", []string{"ai", "machine learning", "llm", "gpt", "langchain", "vectordb", "embedding", "transformer", "neural"}},
	{"architecture", []string{"design", "pattern", "microservice", "architecture", "system", "scalability", "performance"}},
	{"documentation", []string{"readme", "doc", "guide", "tutorial", "example", "howto", "markdown"}},
	{"planning", []string{"requirements", "prd", "task", "planning", "roadmap", "specification", "design doc"}},
}

// categoryVocabulary maps categories to the keywords that indicate them.
var categoryVocabulary = []keywordGroup{
	{"frontend", []string{"react", "nextjs", "vue", "ui", "component", "css", "tailwind", "shadcn"}},
	{"backend", []string{"fastapi", "flask", "api", "endpoint", "server", "python", "golang", "express"}},
	{"testing", []string{"test", "playwright", "pytest", "vitest", "spec", "e2e", "qa"}},
	{"security", []string{"auth", "security", "encryption", "owasp", "jwt", "oauth"}},
	{"devops", []string{"docker", "kubernetes", "ci/cd", "deploy", "infrastructure"}},
	{"database", []string{"database", "sql", "mongodb", "orm", "sqlalchemy", "prisma"}},
	{"ai_ml", []string{"ai", "ml", "llm", "gpt", "langchain", "embedding"}},
	{"architecture", []string{"architecture", "design", "pattern", "system"}},
	{"documentation", []string{"readme", "guide", "tutorial", "doc"}},
	{"planning", []string{"requirements", "prd", "planning", "task"}},
}

// EnrichedMetadata holds inferred metadata for one document, with per-field
// confidence in [0, 1].
type EnrichedMetadata struct {
	Name        string
	Category    string
	TechStack   []string
	Description string
	Confidence  Confidence
}

// Confidence scores per inferred field.
type Confidence struct {
	Category    float64
	TechStack   float64
	Description float64
	Overall     float64
}

// Inferrer derives metadata from document content using keyword heuristics.
type Inferrer struct {
	logger *slog.Logger
}

// NewInferrer creates an Inferrer. A nil logger falls back to slog.Default().
func NewInferrer(logger *slog.Logger) *Inferrer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inferrer{logger: logger}
}

// InferName derives a document name. The filename wins when present;
// otherwise the first plausible title line is slugified.
func (inf *Inferrer) InferName(docText, filename string) string {
	if filename != "" {
		name := strings.ReplaceAll(filename, ".md", "")
		name = strings.ReplaceAll(name, ".py", "")
		name = strings.ReplaceAll(name, "/", "-")
		if len(name) > 2 {
			return name
		}
	}

	for _, line := range strings.Split(docText, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if len(line) > 5 && len(line) < 100 {
			slug := strings.ReplaceAll(strings.ToLower(line), " ", "-")
			if len(slug) > 50 {
				slug = slug[:50]
			}
			return slug
		}
	}

	return fallbackName
}

// InferCategory scores categories by keyword hits in the first 1000
// characters of the document. Confidence is the matched fraction of the
// winning category's vocabulary, capped at 0.99.
func (inf *Inferrer) InferCategory(docText string) (string, float64) {
	if docText == "" {
		return "unknown", 0
	}

	text := strings.ToLower(docText)
	if len(text) > 1000 {
		text = text[:1000]
	}

	best := "unknown"
	bestScore := 0.0
	for _, group := range categoryVocabulary {
		matches := 0
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		score := float64(matches) / float64(len(group.keywords))
		if score > bestScore {
			best = group.label
			bestScore = score
		}
	}

	if bestScore == 0 {
		return "unknown", 0
	}
	if bestScore > 0.99 {
		bestScore = 0.99
	}
	inf.logger.Debug("inferred category", "category", best, "confidence", bestScore)
	return best, bestScore
}

// InferTechStack extracts up to ten technology terms found in the document,
// ordered by occurrence count. Confidence grows with the number of terms.
func (inf *Inferrer) InferTechStack(docText string) ([]string, float64) {
	if docText == "" {
		return nil, 0
	}

	text := strings.ToLower(docText)
	counts := make(map[string]int)
	for _, group := range techVocabulary {
		for _, tech := range group.keywords {
			if strings.Contains(text, tech) {
				counts[tech] = strings.Count(text, tech)
			}
		}
	}
	if len(counts) == 0 {
		return nil, 0
	}

	techs := make([]string, 0, len(counts))
	for tech := range counts {
		techs = append(techs, tech)
	}
	sort.Slice(techs, func(i, j int) bool {
		if counts[techs[i]] != counts[techs[j]] {
			return counts[techs[i]] > counts[techs[j]]
		}
		return techs[i] < techs[j]
	})
	if len(techs) > 10 {
		techs = techs[:10]
	}

	confidence := float64(len(techs)) / 10
	if confidence > 1 {
		confidence = 1
	}
	inf.logger.Debug("inferred tech stack", "techs", techs, "confidence", confidence)
	return techs, confidence
}

// InferDescription builds a description from the first non-heading lines
// after the title, truncated to maxLength. Confidence is the fraction of
// maxLength filled.
func (inf *Inferrer) InferDescription(docText string, maxLength int) (string, float64) {
	if docText == "" {
		return "", 0
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxDescription
	}

	lines := strings.Split(docText, "\n")
	var picked []string
	total := 0
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			picked = append(picked, line)
			total += len(line) + 1
		}
		if total > maxLength {
			break
		}
	}

	description := strings.TrimSpace(core.Truncate(strings.Join(picked, " "), maxLength))
	if description == "" {
		return "", 0
	}

	confidence := float64(len(description)) / float64(maxLength)
	if confidence > 1 {
		confidence = 1
	}
	return description, confidence
}

// Enrich infers all metadata fields for one document.
func (inf *Inferrer) Enrich(docID, docText, filename string) EnrichedMetadata {
	inf.logger.Debug("enriching document", "id", docID)

	name := inf.InferName(docText, filename)
	category, categoryConf := inf.InferCategory(docText)
	techStack, techConf := inf.InferTechStack(docText)
	description, descConf := inf.InferDescription(docText, DefaultMaxDescription)

	return EnrichedMetadata{
		Name:        name,
		Category:    category,
		TechStack:   techStack,
		Description: description,
		Confidence: Confidence{
			Category:    categoryConf,
			TechStack:   techConf,
			Description: descConf,
			Overall:     (categoryConf + techConf + descConf) / 3,
		},
	}
}

// Comparison reports how inferred metadata lines up with curated metadata.
type Comparison struct {
	CategoryMatch     bool
	CategoryActual    string
	CategoryInferred  string
	TechStackOverlap  []string
	TechStackActual   []string
	TechStackInferred []string
	OverallConfidence float64
}

// Compare checks inferred metadata against known metadata, for validating
// the heuristics on documents that already carry curated fields.
func (inf *Inferrer) Compare(enriched EnrichedMetadata, known core.Metadata) Comparison {
	knownTechs := core.DecodeTags(known.String(core.KeyTechStack))

	inferredSet := make(map[string]bool, len(enriched.TechStack))
	for _, tech := range enriched.TechStack {
		inferredSet[tech] = true
	}
	var overlap []string
	for _, tech := range knownTechs {
		if inferredSet[tech] {
			overlap = append(overlap, tech)
		}
	}

	return Comparison{
		CategoryMatch:     enriched.Category == known.String(core.KeyCategory),
		CategoryActual:    known.String(core.KeyCategory),
		CategoryInferred:  enriched.Category,
		TechStackOverlap:  overlap,
		TechStackActual:   knownTechs,
		TechStackInferred: enriched.TechStack,
		OverallConfidence: enriched.Confidence.Overall,
	}
}
