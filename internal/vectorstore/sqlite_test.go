package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(id string, vector []float32) Record {
	return Record{
		ID:         id,
		Vector:     vector,
		Text:       "content of " + id,
		Category:   "python",
		OriginPath: "src/" + id + ".py",
		Provider:   "mock",
		Model:      "mock-model",
	}
}

func TestUpsert_AndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Record{
		testRecord("a", []float32{1, 0, 0}),
		testRecord("b", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsert_IdempotentPerID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("a", []float32{1, 0, 0})
	require.NoError(t, store.Upsert(ctx, []Record{rec}))

	rec.Text = "updated content"
	require.NoError(t, store.Upsert(ctx, []Record{rec}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "re-upserting an id must overwrite, not duplicate")

	matches, err := store.QuerySimilar(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "updated content", matches[0].Text)
}

func TestUpsert_EmptyBatch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upsert(context.Background(), nil))
}

func TestListIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Record{
		testRecord("x", []float32{1, 0}),
		testRecord("y", []float32{0, 1}),
	}))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	_, ok := ids["x"]
	assert.True(t, ok)
	_, ok = ids["y"]
	assert.True(t, ok)
}

func TestSortedIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Record{
		testRecord("b", []float32{1, 0}),
		testRecord("a", []float32{0, 1}),
		testRecord("c", []float32{1, 1}),
	}))

	ids, err := store.SortedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestQuerySimilar_Ordering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Record{
		testRecord("exact", []float32{1, 0, 0}),
		testRecord("close", []float32{0.9, 0.1, 0}),
		testRecord("far", []float32{0, 0, 1}),
	}))

	matches, err := store.QuerySimilar(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].ID)
	assert.Equal(t, "close", matches[1].ID)
	assert.Equal(t, "far", matches[2].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestQuerySimilar_TiesBreakByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Record{
		testRecord("beta", []float32{1, 0}),
		testRecord("alpha", []float32{1, 0}),
	}))

	matches, err := store.QuerySimilar(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "alpha", matches[0].ID)
	assert.Equal(t, "beta", matches[1].ID)
}

func TestQuerySimilar_FiltersByDimension(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Record{
		testRecord("two", []float32{1, 0}),
		testRecord("three", []float32{1, 0, 0}),
	}))

	matches, err := store.QuerySimilar(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "two", matches[0].ID)
}

func TestQuerySimilar_ZeroK(t *testing.T) {
	store := newTestStore(t)
	matches, err := store.QuerySimilar(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorSerialization_Roundtrip(t *testing.T) {
	original := []float32{0.25, -1.5, 3.14159, 0}
	blob := SerializeVector(original)
	assert.Len(t, blob, len(original)*4)
	assert.Equal(t, original, DeserializeVector(blob))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}), "mismatched dimensions")
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}), "zero vector")
}

func TestMigrations_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), []Record{testRecord("a", []float32{1})}))
	require.NoError(t, store.Close())

	// Reopening must not re-run migrations destructively.
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
