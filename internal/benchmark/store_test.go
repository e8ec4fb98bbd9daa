package benchmark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewStore(s)
}

func TestStoreSaveAndLoadRoundTrips(t *testing.T) {
	bs := newTestStore(t)
	ctx := context.Background()

	rs := NewRunState("run-1")
	rs.SetPhase(PhaseExtraction, PhaseState{Total: 10, Completed: 10, IsComplete: true})
	require.NoError(t, bs.Save(ctx, rs))

	loaded, err := bs.Load(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, StatusRunning, loaded.Status)
	require.True(t, loaded.Phase(PhaseExtraction).IsComplete)
}

func TestStoreLoadUnknownRunReturnsNilNil(t *testing.T) {
	bs := newTestStore(t)
	loaded, err := bs.Load(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, loaded)
}
