package docindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
	"github.com/standardbeagle/semindex/internal/vectorstore"
)

func newTestIndex(t *testing.T) (*Index, context.Context) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	vecs, err := vectorstore.Open(s.DB(), 4)
	require.NoError(t, err)

	ctx := context.Background()
	idx, err := Open(ctx, s, vecs)
	require.NoError(t, err)
	return idx, ctx
}

func TestInsertAndGetByFile(t *testing.T) {
	idx, ctx := newTestIndex(t)
	doc := model.Document{
		ID:       "doc1",
		Type:     model.DocCodeChunk,
		FilePath: "a.go",
		FileHash: "h1",
		Content:  "func Add computes a plus b",
		Vector:   []float32{1, 0, 0, 0},
	}
	require.NoError(t, idx.Insert(ctx, doc))

	docs, err := idx.GetByFile(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "doc1", docs[0].ID)
}

func TestDeleteByFileRemovesFromAllChannels(t *testing.T) {
	idx, ctx := newTestIndex(t)
	require.NoError(t, idx.Insert(ctx, model.Document{
		ID: "doc1", Type: model.DocCodeChunk, FilePath: "a.go", Content: "alpha beta", Vector: []float32{1, 0, 0, 0},
	}))
	require.NoError(t, idx.DeleteByFile(ctx, "a.go"))

	docs, err := idx.GetByFile(ctx, "a.go")
	require.NoError(t, err)
	require.Empty(t, docs)

	results := idx.Search(ctx, SearchRequest{QueryText: "alpha"})
	require.Empty(t, results)
}

func TestSearchFusesVectorAndKeywordChannels(t *testing.T) {
	idx, ctx := newTestIndex(t)
	require.NoError(t, idx.Insert(ctx, model.Document{
		ID: "doc1", Type: model.DocCodeChunk, FilePath: "a.go",
		Content: "authentication handler validates tokens", Vector: []float32{1, 0, 0, 0},
	}))
	require.NoError(t, idx.Insert(ctx, model.Document{
		ID: "doc2", Type: model.DocCodeChunk, FilePath: "b.go",
		Content: "unrelated database migration helper", Vector: []float32{0, 1, 0, 0},
	}))

	results := idx.Search(ctx, SearchRequest{QueryText: "authentication tokens", QueryVector: []float32{1, 0, 0, 0}, Limit: 5})
	require.NotEmpty(t, results)
	require.Equal(t, "doc1", results[0].Document.ID)
}

func TestSearchAppliesFileBoost(t *testing.T) {
	idx, ctx := newTestIndex(t)
	require.NoError(t, idx.Insert(ctx, model.Document{
		ID: "doc1", Type: model.DocCodeChunk, FilePath: "a.go", Content: "shared keyword", Vector: []float32{1, 0, 0, 0},
	}))
	require.NoError(t, idx.Insert(ctx, model.Document{
		ID: "doc2", Type: model.DocCodeChunk, FilePath: "b.go", Content: "shared keyword", Vector: []float32{1, 0, 0, 0},
	}))

	boosted := idx.Search(ctx, SearchRequest{
		QueryText: "shared keyword", QueryVector: []float32{1, 0, 0, 0}, Limit: 5,
		FileBoosts: map[string]float64{"b.go": 5.0},
	})
	require.NotEmpty(t, boosted)
	require.Equal(t, "doc2", boosted[0].Document.ID)
}

func TestStatsCountsByType(t *testing.T) {
	idx, ctx := newTestIndex(t)
	require.NoError(t, idx.Insert(ctx, model.Document{ID: "d1", Type: model.DocCodeChunk, FilePath: "a.go", Content: "x"}))
	require.NoError(t, idx.Insert(ctx, model.Document{ID: "d2", Type: model.DocFileSummary, FilePath: "a.go", Content: "y"}))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalDocuments)
	require.Equal(t, 1, stats.ByType[model.DocCodeChunk])
	require.Equal(t, 1, stats.ByType[model.DocFileSummary])
}
