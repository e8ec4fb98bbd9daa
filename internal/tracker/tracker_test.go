package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiffClassifiesNewFiles(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")

	diff, err := tr.Diff(context.Background(), []string{a})
	require.NoError(t, err)
	require.Equal(t, []string{a}, diff.New)
	require.Empty(t, diff.Modified)
	require.Empty(t, diff.Deleted)
	require.Empty(t, diff.Unchanged)
}

func TestMarkIndexedThenDiffIsUnchanged(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")

	require.NoError(t, tr.MarkIndexed(context.Background(), a, "deadbeef", []string{"doc1"}))

	diff, err := tr.Diff(context.Background(), []string{a})
	require.NoError(t, err)
	require.Equal(t, []string{a}, diff.Unchanged)
}

func TestDiffDetectsDeleted(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")
	require.NoError(t, tr.MarkIndexed(context.Background(), a, "deadbeef", nil))

	diff, err := tr.Diff(context.Background(), []string{})
	require.NoError(t, err)
	require.Equal(t, []string{a}, diff.Deleted)
}

func TestSetEnrichmentAndNeedsEnrichment(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")
	require.NoError(t, tr.MarkIndexed(context.Background(), a, "deadbeef", nil))

	needs, err := tr.NeedsEnrichment(context.Background(), a, model.DocFileSummary)
	require.NoError(t, err)
	require.True(t, needs)

	require.NoError(t, tr.SetEnrichment(context.Background(), a, model.DocFileSummary, model.EnrichmentComplete))

	needs, err = tr.NeedsEnrichment(context.Background(), a, model.DocFileSummary)
	require.NoError(t, err)
	require.False(t, needs)
}

func TestRemoveCascadesDocuments(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")
	require.NoError(t, tr.MarkIndexed(context.Background(), a, "deadbeef", []string{"doc1"}))
	_, err := tr.store.DB().ExecContext(context.Background(),
		"INSERT INTO documents(id, document_type, file_path, file_hash, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		"doc1", string(model.DocCodeChunk), a, "deadbeef", "package a", 0)
	require.NoError(t, err)

	require.NoError(t, tr.Remove(context.Background(), a))

	var docCount int
	require.NoError(t, tr.store.DB().QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM documents WHERE file_path=?", a).Scan(&docCount))
	require.Zero(t, docCount)

	hash, err := tr.ContentHash(context.Background(), a)
	require.NoError(t, err)
	require.Empty(t, hash)
}

func TestMarkIndexedResetsEnrichmentOnContentChange(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", "package a")

	require.NoError(t, tr.MarkIndexed(context.Background(), a, "hash1", nil))
	require.NoError(t, tr.SetEnrichment(context.Background(), a, model.DocFileSummary, model.EnrichmentComplete))

	require.NoError(t, tr.MarkIndexed(context.Background(), a, "hash2", nil))

	needs, err := tr.NeedsEnrichment(context.Background(), a, model.DocFileSummary)
	require.NoError(t, err)
	require.True(t, needs, "content-hash change must reset enrichment state to pending")
}
