// Package pipeline wires the File Tracker (C1), AST Unit Extractor (C2),
// Symbol & Reference Extractor plus Reference Graph/PageRank (C3/C4), the
// Enrichment Orchestrator (C5), and the Typed Document Index (C6) into the
// single "ingest a project" operation the watcher (C12) and the one-shot
// CLI entrypoint both drive.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/standardbeagle/semindex/internal/config"
	"github.com/standardbeagle/semindex/internal/debug"
	"github.com/standardbeagle/semindex/pkg/pathutil"
)

// scanner walks a project root to the set of file paths eligible for
// ingestion, following standardbeagle-lci/internal/indexing/pipeline.go's
// ScanDirectory shape: early directory pruning against exclude patterns
// (and, when enabled, .gitignore), symlink-cycle detection, and a
// fast filename-based exclude/include check before any file is opened.
type scanner struct {
	cfg       *config.Config
	matcher   *pathutil.Matcher
	gitignore *config.GitignoreParser
}

func newScanner(cfg *config.Config) *scanner {
	s := &scanner{
		cfg:     cfg,
		matcher: pathutil.New(cfg.Exclude, cfg.Include),
	}
	if cfg.Index.RespectGitignore {
		gi := config.NewGitignoreParser()
		if err := gi.LoadGitignore(cfg.Project.Root); err != nil {
			debug.Log("pipeline", "failed to load .gitignore: %v", err)
		}
		s.gitignore = gi
	}
	return s
}

// scan returns every regular file under root that the scanner's
// exclude/include/gitignore rules and size limits allow, per §4.1's "the
// file set diff operates against".
func (s *scanner) scan(ctx context.Context, root string) ([]string, error) {
	var paths []string
	var totalBytes int64
	visitedDirs := map[string]bool{}

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			debug.Log("pipeline", "scan error for %s: %v", path, walkErr)
			return nil
		}

		if info.IsDir() {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if visitedDirs[real] {
				return filepath.SkipDir
			}
			visitedDirs[real] = true

			if path == root {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			if !s.dirAllowed(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if !s.matcher.Allowed(rel) {
			return nil
		}
		if s.gitignore != nil && s.gitignore.Match(rel, false) {
			return nil
		}
		if s.cfg.Index.MaxFileSize > 0 && info.Size() > s.cfg.Index.MaxFileSize {
			return nil
		}
		if s.cfg.Index.MaxTotalSizeMB > 0 && totalBytes+info.Size() > s.cfg.Index.MaxTotalSizeMB*1024*1024 {
			return nil
		}
		if s.cfg.Index.MaxFileCount > 0 && len(paths) >= s.cfg.Index.MaxFileCount {
			return filepath.SkipAll
		}

		totalBytes += info.Size()
		paths = append(paths, path)
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return nil, err
	}
	return paths, nil
}

func (s *scanner) dirAllowed(rel string) bool {
	if s.matcher.ShouldExclude(rel) || s.matcher.ShouldExclude(rel+"/") {
		return false
	}
	if s.gitignore != nil && s.gitignore.Match(rel, true) {
		return false
	}
	return true
}
