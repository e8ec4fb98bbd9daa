package retriever

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/docindex"
	"github.com/standardbeagle/semindex/internal/embed"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/router"
	"github.com/standardbeagle/semindex/internal/store"
	"github.com/standardbeagle/semindex/internal/vectorstore"
	"github.com/standardbeagle/semindex/internal/weights"
)

func newTestRetriever(t *testing.T) (*Retriever, context.Context) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	vecs, err := vectorstore.Open(s.DB(), 8)
	require.NoError(t, err)

	ctx := context.Background()
	idx, err := docindex.Open(ctx, s, vecs)
	require.NoError(t, err)

	embedder := embed.NewLocal(8)
	w := weights.New(s)
	r := New(Options{
		Router:   router.New(nil, 0),
		Index:    idx,
		Embedder: embedder,
		Weights:  w,
	})
	return r, ctx
}

func TestQueryReturnsNonEmptyContextForMatchingDocument(t *testing.T) {
	r, ctx := newTestRetriever(t)

	doc := model.Document{
		ID: "d1", Type: model.DocCodeChunk, FilePath: "auth.go",
		Content: "ValidateToken checks a bearer token signature",
		Payload: model.DocumentPayload{StartLine: 1, EndLine: 10, ChunkType: string(model.UnitFunction)},
	}
	vec, err := r.embedder.Embed(ctx, doc.Content)
	require.NoError(t, err)
	doc.Vector = vec
	require.NoError(t, r.index.Insert(ctx, doc))

	result := r.Query(ctx, Request{Text: "ValidateToken"})
	require.NotEmpty(t, result.Docs)
	require.Contains(t, result.Context, "auth.go")
}

func strPtr(s string) *string { return &s }

func TestBoostByNameHintPromotesCloseNameMatch(t *testing.T) {
	r, _ := newTestRetriever(t)

	docs := []docindex.ScoredDocument{
		{Document: model.Document{ID: "decoy", Payload: model.DocumentPayload{Name: strPtr("DeleteSession")}}, Score: 5.0},
		{Document: model.Document{ID: "target", Payload: model.DocumentPayload{Name: strPtr("GetUserByID")}}, Score: 1.0},
	}

	boosted := r.boostByNameHint("GetUserById", docs)
	require.Equal(t, "target", boosted[0].Document.ID)
}

func TestBoostByNameHintLeavesUnnamedDocumentsUnaffected(t *testing.T) {
	r, _ := newTestRetriever(t)

	docs := []docindex.ScoredDocument{
		{Document: model.Document{ID: "readme"}, Score: 5.0},
	}
	boosted := r.boostByNameHint("GetUserById", docs)
	require.Equal(t, 5.0, boosted[0].Score)
}

func TestQueryOnEmptyIndexReturnsEmptyResult(t *testing.T) {
	r, ctx := newTestRetriever(t)
	result := r.Query(ctx, Request{Text: "anything"})
	require.Empty(t, result.Docs)
	require.Empty(t, result.Context)
}
