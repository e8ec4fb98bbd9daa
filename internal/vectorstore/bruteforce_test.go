//go:build !sqlite_vec

package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBruteForceUpsertAndSearch(t *testing.T) {
	s := openTestStore(t)
	bf, err := Open(s.DB(), 3)
	require.NoError(t, err)

	require.NoError(t, bf.Upsert(context.Background(), "a", []float32{1, 0, 0}))
	require.NoError(t, bf.Upsert(context.Background(), "b", []float32{0, 1, 0}))

	results, err := bf.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "a", results[0].ID)
}

func TestBruteForcePersistsAcrossReopen(t *testing.T) {
	s := openTestStore(t)
	bf, err := Open(s.DB(), 3)
	require.NoError(t, err)
	require.NoError(t, bf.Upsert(context.Background(), "a", []float32{1, 2, 3}))

	reopened, err := Open(s.DB(), 3)
	require.NoError(t, err)
	results, err := reopened.Search(context.Background(), []float32{1, 2, 3}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].ID)
}

func TestBruteForceDelete(t *testing.T) {
	s := openTestStore(t)
	bf, err := Open(s.DB(), 2)
	require.NoError(t, err)
	require.NoError(t, bf.Upsert(context.Background(), "a", []float32{1, 1}))
	require.NoError(t, bf.Delete(context.Background(), "a"))

	results, err := bf.Search(context.Background(), []float32{1, 1}, 5)
	require.NoError(t, err)
	require.Empty(t, results)
}
