// Package watcher implements the Watcher (C12): recursively watches a
// project tree, debounces code-file events per path and dependency-manifest
// events on a separate, longer timer, and invokes the caller's re-index
// callbacks on each trailing edge. Adapted from the teacher's
// indexing.FileWatcher/eventDebouncer — generalized from one shared
// debounce to per-path debouncing plus the manifest-specific window §4.12
// requires.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/semindex/internal/config"
	"github.com/standardbeagle/semindex/internal/debug"
)

// Callbacks fire on the trailing edge of a debounce window.
type Callbacks struct {
	OnFileChanged               func(path string)
	OnFileRemoved               func(path string)
	OnDependencyManifestChanged func()
}

// trackedExtensions is the §6 supported-language extension table, used
// when the project config carries no explicit include list.
var trackedExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".go": true, ".rs": true, ".java": true,
	".c": true, ".h": true, ".cpp": true, ".hpp": true, ".cc": true,
}

// Watcher wraps fsnotify with the project's ignore rules and §4.12's
// dual-debounce model.
type Watcher struct {
	cfg       *config.Config
	fsw       *fsnotify.Watcher
	callbacks Callbacks
	gitignore *config.GitignoreParser

	mu             sync.Mutex
	pathTimers     map[string]*time.Timer
	pendingRemoval map[string]bool
	depTimer       *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the underlying fsnotify watcher; it does not start watching
// until Start is called. When cfg.Index.RespectGitignore is set, New
// loads cfg.Project.Root's .gitignore the same way the teacher's
// FileScanner does, so a directory that is only ignored via .gitignore
// (not cfg.Exclude) is never watched either.
func New(cfg *config.Config, callbacks Callbacks) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	var gi *config.GitignoreParser
	if cfg.Index.RespectGitignore {
		gi = config.NewGitignoreParser()
		if err := gi.LoadGitignore(cfg.Project.Root); err != nil {
			debug.Log("watcher", "failed to load .gitignore: %v", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg: cfg, fsw: fsw, callbacks: callbacks, gitignore: gi,
		pathTimers:     make(map[string]*time.Timer),
		pendingRemoval: make(map[string]bool),
		ctx:            ctx, cancel: cancel,
	}, nil
}

// Start recursively adds watches under root and begins processing events.
func (w *Watcher) Start(root string) error {
	if err := w.addWatches(root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop cancels event processing and closes the underlying watcher.
// Pending debounced events are dropped, matching the teacher's posture
// that an in-flight shutdown should not risk a deadlock flushing them.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	w.mu.Lock()
	for path, t := range w.pathTimers {
		t.Stop()
		delete(w.pathTimers, path)
		delete(w.pendingRemoval, path)
	}
	if w.depTimer != nil {
		w.depTimer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) addWatches(root string) error {
	visited := map[string]bool{}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true
		if w.shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			debug.Log("watcher", "add watch failed for %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	for _, ignored := range w.cfg.Exclude {
		if base == ignored {
			return true
		}
	}
	if w.gitignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.cfg.Project.Root, path)
	if err != nil {
		return false
	}
	return w.gitignore.Match(filepath.ToSlash(rel), true)
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.Log("watcher", "fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.shouldIgnoreDir(path) {
			if err := w.fsw.Add(path); err != nil {
				debug.Log("watcher", "add watch for new dir %s failed: %v", path, err)
			}
		}
		return
	}

	base := filepath.Base(path)
	for _, manifest := range config.DependencyManifests {
		if base == manifest {
			w.scheduleDependencyDebounce()
			return
		}
	}

	if !w.isTrackedExtension(path) {
		return
	}
	w.scheduleFileDebounce(path, event.Op&fsnotify.Remove != 0)
}

func (w *Watcher) isTrackedExtension(path string) bool {
	ext := filepath.Ext(path)
	if len(w.cfg.Index.IncludeExtensions) == 0 {
		return trackedExtensions[ext]
	}
	for _, e := range w.cfg.Index.IncludeExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleFileDebounce(path string, removed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pathTimers[path]; ok {
		t.Stop()
	}
	w.pendingRemoval[path] = removed
	debounce := time.Duration(w.cfg.Index.WatchDebounceMs) * time.Millisecond
	w.pathTimers[path] = time.AfterFunc(debounce, func() { w.flushFile(path) })
}

func (w *Watcher) flushFile(path string) {
	w.mu.Lock()
	removed := w.pendingRemoval[path]
	delete(w.pathTimers, path)
	delete(w.pendingRemoval, path)
	w.mu.Unlock()

	if removed {
		if w.callbacks.OnFileRemoved != nil {
			w.callbacks.OnFileRemoved(path)
		}
		return
	}
	if w.callbacks.OnFileChanged != nil {
		w.callbacks.OnFileChanged(path)
	}
}

func (w *Watcher) scheduleDependencyDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.depTimer != nil {
		w.depTimer.Stop()
	}
	debounce := time.Duration(w.cfg.Index.DepDebounceMs) * time.Millisecond
	w.depTimer = time.AfterFunc(debounce, w.flushDependency)
}

func (w *Watcher) flushDependency() {
	if w.callbacks.OnDependencyManifestChanged != nil {
		w.callbacks.OnDependencyManifestChanged()
	}
}
