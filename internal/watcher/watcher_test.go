package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/config"
)

func testConfig(root string) *config.Config {
	return &config.Config{
		Project: config.Project{Root: root},
		Exclude: []string{".git", "node_modules"},
		Index:   config.Index{WatchDebounceMs: 50, DepDebounceMs: 150},
	}
}

func TestWatcherDebouncesRapidWritesToOnePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(file, []byte("package a"), 0o644))

	var mu sync.Mutex
	var changed []string
	w, err := New(testConfig(dir), Callbacks{
		OnFileChanged: func(path string) {
			mu.Lock()
			changed = append(changed, path)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("package a // edit"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changed, 1)
}

func TestWatcherUsesSeparateDebounceForManifest(t *testing.T) {
	dir := t.TempDir()

	var manifestFired, fileFired bool
	var mu sync.Mutex
	w, err := New(testConfig(dir), Callbacks{
		OnFileChanged: func(path string) {
			mu.Lock()
			fileFired = true
			mu.Unlock()
		},
		OnDependencyManifestChanged: func() {
			mu.Lock()
			manifestFired = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x"), 0o644))
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	require.False(t, manifestFired, "manifest debounce (150ms) should not have fired yet")
	require.False(t, fileFired)
	mu.Unlock()

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.True(t, manifestFired)
}

func TestWatcherRespectsGitignoreOnlyExcludedDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("vendor/\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0o755))

	cfg := testConfig(dir)
	cfg.Index.RespectGitignore = true

	var fired bool
	var mu sync.Mutex
	w, err := New(cfg, Callbacks{
		OnFileChanged: func(path string) {
			mu.Lock()
			fired = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NotNil(t, w.gitignore)
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "dep.go"), []byte("package vendor"), 0o644))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.False(t, fired, "vendor/ is gitignored and was never watched")
}

func TestWatcherIgnoresUntrackedExtensions(t *testing.T) {
	dir := t.TempDir()
	var fired bool
	var mu sync.Mutex
	w, err := New(testConfig(dir), Callbacks{
		OnFileChanged: func(path string) {
			mu.Lock()
			fired = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.False(t, fired)
}
