package ingestion

import (
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/ollieb89/chroma-tool/core"
)

// Splitter produces an ordered sequence of overlapping text chunks from a
// document, preferring structural boundaries (paragraphs, headings) over
// mid-token splits. Deterministic for identical input and configuration.
type Splitter interface {
	Split(text string) ([]string, error)
}

// markdownSeparators order the split preference: heading breaks first, then
// paragraph breaks, then lines, then words.
var markdownSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", " ", ""}

type langchainSplitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewMarkdownSplitter builds a recursive character splitter tuned for
// markdown-like documents. An overlap at or above chunkSize is clamped to a
// tenth of the chunk size.
func NewMarkdownSplitter(chunkSize, chunkOverlap int) Splitter {
	inner := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(core.ClampOverlap(chunkSize, chunkOverlap)),
		textsplitter.WithSeparators(markdownSeparators),
	)
	return &langchainSplitter{inner: inner}
}

func (s *langchainSplitter) Split(text string) ([]string, error) {
	return s.inner.SplitText(text)
}
