package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollieb89/chroma-tool/core"
	"github.com/ollieb89/chroma-tool/store"
)

func seed(t *testing.T, coll store.Collection) {
	t.Helper()
	err := coll.Upsert(context.Background(),
		[]string{"a.md:0", "b.md:0", "c.md:0"},
		[]string{
			"react frontend components with typescript",
			"postgres database migrations",
			"react hooks and typescript generics",
		},
		[]core.Metadata{
			{"source": "a.md", "category": "frontend"},
			{"source": "b.md", "category": "database"},
			{"source": "c.md", "category": "frontend"},
		},
	)
	require.NoError(t, err)
}

func TestUpsert_OverwritesSameID(t *testing.T) {
	s := New()
	coll, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)
	seed(t, coll)

	err = coll.Upsert(context.Background(),
		[]string{"a.md:0"}, []string{"replaced"}, []core.Metadata{{"source": "a.md"}})
	require.NoError(t, err)

	count, err := coll.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := coll.Get(context.Background(), store.GetOptions{IDs: []string{"a.md:0"}})
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "replaced", got.Documents[0])
}

func TestGet_Pagination(t *testing.T) {
	s := New()
	coll, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)
	seed(t, coll)

	page1, err := coll.Get(context.Background(), store.GetOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md:0", "b.md:0"}, page1.IDs)

	page2, err := coll.Get(context.Background(), store.GetOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.md:0"}, page2.IDs)
}

func TestGet_WhereFilter(t *testing.T) {
	s := New()
	coll, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)
	seed(t, coll)

	got, err := coll.Get(context.Background(), store.GetOptions{Where: core.Metadata{"category": "frontend"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md:0", "c.md:0"}, got.IDs)
}

func TestGet_WhereDocumentFilter(t *testing.T) {
	s := New()
	coll, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)
	seed(t, coll)

	got, err := coll.Get(context.Background(), store.GetOptions{WhereDocument: core.Metadata{"$contains": "typescript"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md:0", "c.md:0"}, got.IDs)

	got, err = coll.Get(context.Background(), store.GetOptions{WhereDocument: core.Metadata{"$not_contains": "react"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md:0"}, got.IDs)

	got, err = coll.Get(context.Background(), store.GetOptions{WhereDocument: core.Metadata{"$regex": ".*"}})
	require.NoError(t, err)
	assert.Empty(t, got.IDs)
}

func TestQuery_DistanceOrdering(t *testing.T) {
	s := New()
	coll, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)
	seed(t, coll)

	res, err := coll.Query(context.Background(), []string{"react typescript"}, 3)
	require.NoError(t, err)
	require.Len(t, res.Distances, 1)

	dists := res.Distances[0]
	require.Len(t, dists, 3)
	for i := 1; i < len(dists); i++ {
		assert.LessOrEqual(t, dists[i-1], dists[i], "distances must be non-decreasing")
	}
	// The database document shares no tokens with the query.
	assert.Equal(t, "postgres database migrations", res.Documents[0][2])
}

func TestUpdate_MissingID(t *testing.T) {
	s := New()
	coll, err := s.GetOrCreateCollection(context.Background(), "test")
	require.NoError(t, err)

	err = coll.Update(context.Background(), []string{"nope:0"}, []string{"x"}, []core.Metadata{{}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListCollections(t *testing.T) {
	s := New()
	_, err := s.GetOrCreateCollection(context.Background(), "first")
	require.NoError(t, err)
	_, err = s.GetOrCreateCollection(context.Background(), "second")
	require.NoError(t, err)

	colls, err := s.ListCollections(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, colls, 2)
	assert.Equal(t, "first", colls[0].Name())

	paged, err := s.ListCollections(context.Background(), 10, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "second", paged[0].Name())
}

func TestLexicalDistance_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, lexicalDistance("react typescript", "react typescript"))
	assert.Equal(t, 1.0, lexicalDistance("react", "postgres"))

	d := lexicalDistance("react typescript", "react hooks")
	assert.Greater(t, d, 0.0)
	assert.Less(t, d, 1.0)
}
