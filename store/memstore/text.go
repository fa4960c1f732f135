package memstore

import "strings"

// Stop words filtered out before lexical scoring
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenize splits text into words, lowercases, trims punctuation, and removes stop words
func tokenize(text string) map[string]bool {
	words := strings.Fields(text)
	set := make(map[string]bool, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			set[cleaned] = true
		}
	}

	return set
}

// lexicalDistance returns a deterministic dissimilarity in [0,1]:
// 1 minus the Jaccard similarity of the two token sets. Identical token sets
// score 0, disjoint sets score 1.
func lexicalDistance(query, document string) float64 {
	q := tokenize(query)
	d := tokenize(document)

	if len(q) == 0 && len(d) == 0 {
		return 0
	}

	intersection := 0
	for word := range q {
		if d[word] {
			intersection++
		}
	}
	union := len(q) + len(d) - intersection
	if union == 0 {
		return 1
	}

	return 1 - float64(intersection)/float64(union)
}
