package ingestion

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ollieb89/chroma-tool/core"
)

// markerFiles are never ingested in entity mode: package-init markers and
// repository READMEs carry no entity content.
var markerFiles = map[string]bool{
	"__init__.py": true,
	"README.md":   true,
}

// Discover walks every target folder and returns the deduplicated, sorted set
// of files matching the configured patterns, minus exclusions. Sorting makes
// ingestion order deterministic across runs.
func (p *Pipeline) Discover() ([]string, error) {
	seen := make(map[string]bool)

	for _, folder := range p.folders {
		err := filepath.WalkDir(folder, func(filePath string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable directories are skipped, not fatal.
				p.logger.Warn("cannot access path during discovery", "path", filePath, "err", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			name := d.Name()
			if !p.matchesPattern(name) {
				return nil
			}
			if p.exclusions[name] {
				return nil
			}
			if p.skipMarkers && markerFiles[name] {
				return nil
			}

			seen[core.NormalizePath(filePath)] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// matchesPattern matches a basename against the configured glob patterns.
// A leading "**/" means "at any depth" and is implied by the recursive walk.
func (p *Pipeline) matchesPattern(basename string) bool {
	for _, pattern := range p.patterns {
		pattern = strings.TrimPrefix(pattern, "**/")
		if ok, _ := path.Match(pattern, basename); ok {
			return true
		}
	}
	return false
}
