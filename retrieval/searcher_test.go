package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
	"github.com/ollieb89/chroma-tool/store/memstore"
)

func seedMulti(t *testing.T) store.Client {
	t.Helper()
	client := memstore.New()
	ctx := context.Background()

	agents, err := client.GetOrCreateCollection(ctx, "agents_raw")
	require.NoError(t, err)
	require.NoError(t, agents.Upsert(ctx,
		[]string{"reviewer:a.md:0"},
		[]string{"react component review checklist"},
		[]core.Metadata{{core.KeySource: "a.md"}}))

	docs, err := client.GetOrCreateCollection(ctx, "portfolio")
	require.NoError(t, err)
	require.NoError(t, docs.Upsert(ctx,
		[]string{"docs/b.md:0"},
		[]string{"react component styling guide"},
		[]core.Metadata{{core.KeySource: "b.md"}}))

	return client
}

func TestNewMultiCollectionSearcher_RequiresNames(t *testing.T) {
	_, err := NewMultiCollectionSearcher(context.Background(), memstore.New(), nil)
	assert.Error(t, err)
}

func TestSearch_TagsCollections(t *testing.T) {
	client := seedMulti(t)
	s, err := NewMultiCollectionSearcher(context.Background(), client, []string{"agents_raw", "portfolio"})
	require.NoError(t, err)

	results := s.Search(context.Background(), "react component", 3)
	require.Len(t, results, 2)
	assert.Equal(t, "agents_raw", results[0].Collection)
	assert.Equal(t, "portfolio", results[1].Collection)
}

func TestSearchAll_KeysByCollection(t *testing.T) {
	client := seedMulti(t)
	s, err := NewMultiCollectionSearcher(context.Background(), client, []string{"agents_raw", "portfolio"})
	require.NoError(t, err)

	results := s.SearchAll(context.Background(), "react component", 3)
	require.Len(t, results, 2)
	assert.Len(t, results["agents_raw"], 1)
	assert.Len(t, results["portfolio"], 1)
}

func TestSearchRanked_MergesAscending(t *testing.T) {
	client := seedMulti(t)
	s, err := NewMultiCollectionSearcher(context.Background(), client, []string{"agents_raw", "portfolio"})
	require.NoError(t, err)

	results := s.SearchRanked(context.Background(), "react component styling guide", 5)
	require.Len(t, results, 2)
	// The portfolio document matches the query exactly and must rank first
	// despite its collection coming later.
	assert.Equal(t, "portfolio", results[0].Collection)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestSearch_IsolatesFailingCollection(t *testing.T) {
	client := seedMulti(t)
	s, err := NewMultiCollectionSearcher(context.Background(), client, []string{"agents_raw", "portfolio"})
	require.NoError(t, err)

	coll, err := client.GetOrCreateCollection(context.Background(), "agents_raw")
	require.NoError(t, err)
	coll.(*memstore.Collection).QueryErr = store.ErrUnavailable

	results := s.Search(context.Background(), "react component", 3)
	require.Len(t, results, 1)
	assert.Equal(t, "portfolio", results[0].Collection)
}
