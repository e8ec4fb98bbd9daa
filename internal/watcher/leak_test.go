package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestWatcherStopLeavesNoGoroutinesRunning verifies Stop() tears down the
// event/debounce goroutines Start spawns, the same property the teacher's
// own leak_test.go checks for MasterIndex.Close.
func TestWatcherStopLeavesNoGoroutinesRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))

	w, err := New(testConfig(dir), Callbacks{})
	require.NoError(t, err)
	require.NoError(t, w.Start(dir))
	require.NoError(t, w.Stop())

	time.Sleep(50 * time.Millisecond)
}
