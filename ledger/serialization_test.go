package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalEntry(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		entry *Entry
	}{
		{
			name: "minimal entry",
			entry: &Entry{
				Path:       "docs/readme.md",
				IngestedAt: now,
			},
		},
		{
			name: "full entry",
			entry: &Entry{
				Path:       "agents/code-reviewer.md",
				Digest:     18446744073709551615,
				ChunkCount: 12,
				Collection: "agents_raw",
				IngestedAt: now,
			},
		},
		{
			name: "unicode path",
			entry: &Entry{
				Path:       "docs/résumé.md",
				Digest:     42,
				ChunkCount: 1,
				Collection: "portfolio",
				IngestedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalEntry(tt.entry)
			require.NotEmpty(t, data)
			assert.Len(t, data, EntryMUS.Size(*tt.entry))

			decoded, err := UnmarshalEntry(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.entry.Path, decoded.Path)
			assert.Equal(t, tt.entry.Digest, decoded.Digest)
			assert.Equal(t, tt.entry.ChunkCount, decoded.ChunkCount)
			assert.Equal(t, tt.entry.Collection, decoded.Collection)
			assert.True(t, tt.entry.IngestedAt.Equal(decoded.IngestedAt))
		})
	}
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated data", MarshalEntry(&Entry{Path: "docs/readme.md"})[:3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestEntryMUS_Skip(t *testing.T) {
	entry := Entry{
		Path:       "docs/readme.md",
		Digest:     7,
		ChunkCount: 3,
		Collection: "portfolio",
		IngestedAt: time.Now().UTC(),
	}
	data := MarshalEntry(&entry)

	n, err := EntryMUS.Skip(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
}
