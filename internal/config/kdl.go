package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/semindex/internal/model"
)

// LoadKDL loads `.semindex.kdl` from projectRoot, merging additively over
// Default(). Returns Default(projectRoot) unmodified if no file exists.
func LoadKDL(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, ".semindex.kdl")
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(projectRoot), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read .semindex.kdl: %w", err)
	}

	cfg := Default(projectRoot)
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parse .semindex.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) {
					if filepath.IsAbs(v) {
						cfg.Project.Root = v
					} else {
						cfg.Project.Root = filepath.Clean(filepath.Join(projectRoot, v))
					}
				})
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileSize = int64(v)
					}
				case "max_total_size_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxTotalSizeMB = int64(v)
					}
				case "max_file_count":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileCount = v
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.RespectGitignore = b
					}
				case "watch_mode":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Index.WatchMode = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.WatchDebounceMs = v
					}
				case "dep_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.DepDebounceMs = v
					}
				case "include_extensions":
					cfg.Index.IncludeExtensions = collectStringArgs(cn)
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_goroutines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.MaxGoroutines = v
					}
				case "parallel_file_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParallelFileWorkers = v
					}
				case "indexing_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.IndexingTimeoutSec = v
					}
				}
			}
		case "enrichment":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Enrichment.Enabled = b
					}
				case "types":
					var types []model.DocumentType
					for _, s := range collectStringArgs(cn) {
						types = append(types, model.DocumentType(s))
					}
					if len(types) > 0 {
						cfg.Enrichment.Types = types
					}
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "model":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.Model = s
					}
				case "rerank_enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.RerankEnabled = b
					}
				case "min_rerank_score":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MinRerankScore = v
					}
				}
			}
		case "benchmark":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "large_model_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Benchmark.LargeModelThresholdBillions = v
					}
				case "local_model_parallelism":
					if v, ok := firstIntArg(cn); ok {
						cfg.Benchmark.LocalModelParallelism = v
					}
				}
			}
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
