package core

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Metadata is the per-chunk metadata map stored alongside a chunk's text.
// The vector store only accepts scalar values (string, int, float64, bool);
// list-valued fields such as the tech stack are serialized to strings before
// write. See EncodeTags/DecodeTags.
type Metadata map[string]any

// Metadata keys required for every chunk.
const (
	KeySource     = "source"
	KeyFilename   = "filename"
	KeyChunkIndex = "chunk_index"
	KeyFolder     = "folder"
	KeyFileType   = "file_type"
)

// Additional metadata keys present on entity-aware chunks.
const (
	KeyEntity           = "entity"
	KeyCategory         = "category"
	KeyTechStack        = "tech_stack"
	KeyDescription      = "description"
	KeySourceCollection = "source_collection"
	KeyTotalChunks      = "total_chunks"
	KeyDigest           = "digest"
)

// requiredKeys must be present on every chunk written to the store.
var requiredKeys = []string{KeySource, KeyFilename, KeyChunkIndex, KeyFolder, KeyFileType}

// entityKeys must additionally be present on entity-aware chunks.
var entityKeys = []string{KeyEntity, KeyCategory, KeyTechStack, KeyDescription, KeySourceCollection}

// Chunk is one retrievable unit: a bounded slice of a document's text with a
// deterministic id and its metadata map.
type Chunk struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Entity is a logical source document reconstructed by grouping its chunks.
// Entities are a read-time projection; only chunks are persisted.
type Entity struct {
	Name             string
	Path             string
	Type             string
	Category         string
	TechStack        []string
	Description      string
	Source           string
	SourceCollection string
	ChunkCount       int
}

// EncodeTags serializes a tag list to the JSON string form stored in chunk
// metadata.
func EncodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeTags parses a stored tag value. It accepts a JSON array, or falls back
// to a comma-joined list for records written before tags were JSON-encoded.
func DecodeTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}

	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Truncate shortens s to at most max bytes without splitting a multi-byte
// rune; cutting mid-rune would leave an invalid UTF-8 sequence in stored
// metadata.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 0 {
		max = 0
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// String returns a string metadata value, or empty when absent or of a
// different type.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns an int metadata value. Values decoded from JSON arrive as
// float64, so both forms are accepted.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
