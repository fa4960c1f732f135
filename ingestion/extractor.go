package ingestion

import (
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/ollieb89/chroma-tool/core"
)

// MetadataExtractor builds per-chunk base metadata for one document kind.
// Extract returns the metadata shared by all of a file's chunks and the body
// text to split. Failures inside an extractor degrade (logged, defaults used)
// rather than abort, so implementations never return an error.
type MetadataExtractor interface {
	Extract(filePath, content string) (core.Metadata, string)

	// EntityName returns the entity name recorded in metadata, or empty when
	// the extractor does not produce named entities.
	EntityName(meta core.Metadata) string
}

// FileExtractor produces the generic file metadata attached to every chunk:
// source path, filename, folder, and file extension.
type FileExtractor struct{}

var _ MetadataExtractor = (*FileExtractor)(nil)

func (FileExtractor) Extract(filePath, content string) (core.Metadata, string) {
	return baseMetadata(filePath), content
}

func (FileExtractor) EntityName(core.Metadata) string {
	return ""
}

func baseMetadata(filePath string) core.Metadata {
	normalized := core.NormalizePath(filePath)
	return core.Metadata{
		core.KeySource:   filePath,
		core.KeyFilename: path.Base(normalized),
		core.KeyFolder:   path.Dir(normalized),
		core.KeyFileType: path.Ext(normalized),
	}
}

// categoryTable maps a category to its classification keywords. Declaration
// order is the tie-break priority.
type categoryTable []struct {
	name     string
	keywords []string
}

// entityCategories classifies entity files. Ties resolve to the earliest
// declared category; an all-zero score falls back to "general".
var entityCategories = categoryTable{
	{"frontend", []string{"frontend", "react", "nextjs", "ui", "ux", "component"}},
	{"backend", []string{"backend", "api", "python", "fastapi", "server"}},
	{"architecture", []string{"architect", "system", "design", "infrastructure"}},
	{"testing", []string{"test", "qa", "quality", "playwright", "debug"}},
	{"ai_ml", []string{"ai", "ml", "data", "engineer", "scientist", "prompt"}},
	{"devops", []string{"devops", "deploy", "cloud", "incident", "performance"}},
	{"security", []string{"security", "audit", "vulnerability"}},
	{"quality", []string{"review", "refactor", "code quality", "best practice"}},
	{"database", []string{"database", "sql", "postgres", "neon", "graphql"}},
	{"planning", []string{"plan", "requirement", "pm", "product", "task"}},
}

// entityTechVocabulary is the fixed tech-stack vocabulary matched against
// entity file content, case-insensitive substring match.
var entityTechVocabulary = [][]string{
	{"nextjs", "next.js", "react", "typescript", "tailwind", "css", "html", "ui", "ux"},
	{"python", "fastapi", "api", "rest", "graphql", "websocket", "middleware"},
	{"postgresql", "postgres", "sql", "neon", "prisma", "sqlalchemy", "database"},
	{"playwright", "vitest", "jest", "testing", "test", "e2e", "unit", "integration"},
	{"ai", "ml", "machine learning", "llm", "embeddings", "vector", "rag", "prompt"},
	{"docker", "deployment", "ci/cd", "kubernetes", "vercel", "railway", "cloud"},
	{"security", "auth", "authentication", "jwt", "oauth", "vulnerability"},
}

// sourceCollectionRules map a path substring to the source collection tag.
// First match wins; no match tags the file "unknown".
var sourceCollectionRules = []struct {
	substring  string
	collection string
}{
	{".github/agents", "github_agents"},
	{"ccs/.claude/agents", "ccs_claude"},
	{"ghc_tools/agents", "ghc_tools"},
	{"scf/src/superclaude", "superclaude"},
}

// entityNameSuffixes are stripped from a filename when front matter does not
// declare a name.
var entityNameSuffixes = []string{".md", ".agent", ".prompt"}

const maxDescriptionLen = 500

// EntityExtractor produces rich metadata for entity definition files: front
// matter fields, keyword-scored category, tech-stack tags, and the source
// collection derived from the file's location.
type EntityExtractor struct {
	logger *slog.Logger
}

var _ MetadataExtractor = (*EntityExtractor)(nil)

// NewEntityExtractor creates an entity-aware extractor.
func NewEntityExtractor(logger *slog.Logger) *EntityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityExtractor{logger: logger.With("component", "entity-extractor")}
}

func (e *EntityExtractor) Extract(filePath, content string) (core.Metadata, string) {
	fields, body, err := parseFrontMatter(content)
	if err != nil {
		// Malformed front matter is non-fatal: the whole file becomes body.
		e.logger.Warn("front matter parse error", "file", filePath, "err", err)
		fields, body = map[string]any{}, content
	}

	normalized := core.NormalizePath(filePath)
	filename := path.Base(normalized)

	name := frontMatterString(fields, "name")
	if name == "" {
		name = entityNameFromFilename(filename)
	}

	description := core.Truncate(frontMatterString(fields, "description"), maxDescriptionLen)

	meta := baseMetadata(filePath)
	meta[core.KeyEntity] = name
	meta[core.KeyDescription] = description
	meta[core.KeyCategory] = classifyCategory(filename, content)
	meta[core.KeyTechStack] = core.EncodeTags(extractTechStack(content))
	meta[core.KeySourceCollection] = sourceCollection(normalized)
	meta["model"] = frontMatterString(fields, "model")
	meta["tools"] = strings.Join(frontMatterList(fields, "tools"), ",")

	return meta, body
}

func (e *EntityExtractor) EntityName(meta core.Metadata) string {
	return meta.String(core.KeyEntity)
}

func entityNameFromFilename(filename string) string {
	name := filename
	for _, suffix := range entityNameSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	// ".agent.md" style filenames carry two suffixes
	for _, suffix := range entityNameSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	if name == "" {
		return "unknown"
	}
	return name
}

// classifyCategory scores filename+content against the category table and
// returns the highest-scoring category, defaulting to "general".
func classifyCategory(filename, content string) string {
	text := strings.ToLower(filename + " " + content)

	best := "general"
	bestScore := 0
	for _, entry := range entityCategories {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.name
			bestScore = score
		}
	}
	return best
}

// extractTechStack returns the sorted set of vocabulary keywords present in
// the content, case-insensitive.
func extractTechStack(content string) []string {
	lower := strings.ToLower(content)

	found := make(map[string]bool)
	for _, group := range entityTechVocabulary {
		for _, kw := range group {
			if strings.Contains(lower, kw) {
				found[kw] = true
			}
		}
	}

	tags := make([]string, 0, len(found))
	for tag := range found {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func sourceCollection(normalizedPath string) string {
	for _, rule := range sourceCollectionRules {
		if strings.Contains(normalizedPath, rule.substring) {
			return rule.collection
		}
	}
	return "unknown"
}
