package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSearchRanksByInnerProduct(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Index(ctx, []Document{
		{ID: "x", TenantID: "t1", Content: "x", Embedding: []float32{1, 0}},
		{ID: "y", TenantID: "t1", Content: "y", Embedding: []float32{0, 1}},
	}))

	results, err := store.Search(ctx, "t1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "x", results[0].ID)
	require.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	require.InDelta(t, 0.5, results[1].Similarity, 1e-9)
}

func TestInMemoryStoreIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Index(ctx, []Document{
		{ID: "x", TenantID: "t1", Embedding: []float32{1, 0}},
		{ID: "y", TenantID: "t2", Embedding: []float32{1, 0}},
	}))

	results, err := store.Search(ctx, "t1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "x", results[0].ID)
}

func TestInMemoryStoreReplacesOnSameID(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Index(ctx, []Document{
		{ID: "x", TenantID: "t1", Content: "old", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, store.Index(ctx, []Document{
		{ID: "x", TenantID: "t1", Content: "new", Embedding: []float32{1, 0}},
	}))

	results, err := store.Search(ctx, "t1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "new", results[0].Content)
}

func TestInMemoryStoreDeleteByTenant(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Index(ctx, []Document{
		{ID: "x", TenantID: "t1", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, store.DeleteByTenant(ctx, "t1"))

	results, err := store.Search(ctx, "t1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestInMemoryStoreSkipsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Index(ctx, []Document{
		{ID: "x", TenantID: "t1", Embedding: []float32{1, 0, 0}},
		{ID: "y", TenantID: "t1", Embedding: []float32{1, 0}},
	}))

	results, err := store.Search(ctx, "t1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "y", results[0].ID)
}
