package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSeen_UnknownPath(t *testing.T) {
	l := openTestLedger(t)

	assert.False(t, l.Seen("docs/readme.md", 42))
}

func TestRecordThenSeen(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record("docs/readme.md", 42, 3, "portfolio"))

	assert.True(t, l.Seen("docs/readme.md", 42))
	assert.False(t, l.Seen("docs/readme.md", 43), "different digest means the file changed")
	assert.False(t, l.Seen("docs/other.md", 42))
}

func TestSeen_NormalizesPaths(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record(`docs\sub\readme.md`, 7, 1, "portfolio"))

	assert.True(t, l.Seen("docs/sub/readme.md", 7))
	assert.True(t, l.Seen("docs/./sub/../sub/readme.md", 7))
}

func TestRecord_ReplacesPreviousEntry(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record("a.md", 1, 2, "portfolio"))
	require.NoError(t, l.Record("a.md", 2, 5, "portfolio"))

	assert.False(t, l.Seen("a.md", 1))
	assert.True(t, l.Seen("a.md", 2))

	summaries, err := l.Summarize()
	require.NoError(t, err)
	assert.Equal(t, Summary{Files: 1, Chunks: 5}, summaries["portfolio"])
}

func TestSummarize_GroupsByCollection(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record("a.md", 1, 2, "portfolio"))
	require.NoError(t, l.Record("b.md", 2, 3, "portfolio"))
	require.NoError(t, l.Record("agents/x.md", 3, 4, "agents_raw"))

	summaries, err := l.Summarize()
	require.NoError(t, err)

	assert.Equal(t, Summary{Files: 2, Chunks: 5}, summaries["portfolio"])
	assert.Equal(t, Summary{Files: 1, Chunks: 4}, summaries["agents_raw"])
}

func TestSummarize_Empty(t *testing.T) {
	l := openTestLedger(t)

	summaries, err := l.Summarize()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
