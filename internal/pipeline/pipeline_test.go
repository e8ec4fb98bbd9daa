package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/config"
	"github.com/standardbeagle/semindex/internal/docindex"
	"github.com/standardbeagle/semindex/internal/embed"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
	"github.com/standardbeagle/semindex/internal/symbolstore"
	"github.com/standardbeagle/semindex/internal/tracker"
	"github.com/standardbeagle/semindex/internal/vectorstore"
)

func newTestPipeline(t *testing.T, root string) *Pipeline {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	vectors, err := vectorstore.Open(s.DB(), 8)
	require.NoError(t, err)
	idx, err := docindex.Open(context.Background(), s, vectors)
	require.NoError(t, err)

	cfg := config.Default(root)
	cfg.Enrichment.Enabled = false

	return New(cfg, tracker.New(s), symbolstore.New(s), idx, embed.NewLocal(8), nil, nil)
}

func writeGoFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleGoSource = `package sample

func Add(a, b int) int {
	return helper(a, b)
}

func helper(a, b int) int {
	return a + b
}
`

func TestIngestExtractsCodeChunksAndSymbols(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "math.go", sampleGoSource)

	p := newTestPipeline(t, dir)
	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, result.New)
	require.Zero(t, result.ParseErrors)

	symbols, err := p.symbols.AllSymbols(context.Background())
	require.NoError(t, err)
	names := map[string]bool{}
	for _, s := range symbols {
		names[s.Name] = true
	}
	require.True(t, names["Add"])
	require.True(t, names["helper"])
}

func TestIngestResolvesCallReferenceWithinFile(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "math.go", sampleGoSource)

	p := newTestPipeline(t, dir)
	_, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)

	refs, err := p.symbols.AllRefs(context.Background())
	require.NoError(t, err)

	found := false
	for _, r := range refs {
		if r.ToSymbolName == "helper" && r.Kind == model.RefCall {
			require.True(t, r.IsResolved)
			found = true
		}
	}
	require.True(t, found, "expected a resolved reference to helper")
}

func TestSecondIngestWithNoChangesReportsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "math.go", sampleGoSource)

	p := newTestPipeline(t, dir)
	_, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, result.Unchanged)
	require.Zero(t, result.New)
	require.Zero(t, result.Modified)
}

func TestIngestRemovesDeletedFileState(t *testing.T) {
	dir := t.TempDir()
	path := writeGoFile(t, dir, "math.go", sampleGoSource)

	p := newTestPipeline(t, dir)
	_, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	result, err := p.Ingest(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, result.Deleted)

	docs, err := p.index.GetByFile(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, docs)
}
