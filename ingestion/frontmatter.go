package ingestion

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatterMarker delimits an optional key-value header block: one marker
// line at the very start of the document and a second occurrence closing it.
const frontMatterMarker = "---"

// parseFrontMatter splits a document into its front-matter mapping and body.
// Documents without a leading marker return an empty mapping and the full
// text. A block that fails to parse returns an error along with the full text
// as body, so callers can degrade to treating the file as plain content.
func parseFrontMatter(content string) (map[string]any, string, error) {
	if !strings.HasPrefix(content, frontMatterMarker) {
		return map[string]any{}, content, nil
	}

	parts := strings.SplitN(content, frontMatterMarker, 3)
	if len(parts) < 3 {
		return map[string]any{}, content, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &fields); err != nil {
		return map[string]any{}, content, err
	}
	if fields == nil {
		fields = map[string]any{}
	}

	return fields, strings.TrimSpace(parts[2]), nil
}

// frontMatterString returns a string field from parsed front matter.
func frontMatterString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// frontMatterList returns a list-of-string field from parsed front matter.
// YAML decodes lists as []any, so elements are converted individually.
func frontMatterList(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
