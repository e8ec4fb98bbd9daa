// Package config holds per-project configuration: ingestion limits,
// enrichment toggles, search weights, and benchmark scheduling knobs.
// Loading is additive over defaults, matching the teacher's
// `.lci.kdl`-style project file (here `.semindex.kdl`).
package config

import (
	"runtime"

	"github.com/standardbeagle/semindex/internal/model"
)

// Config is the root configuration object, covering every row of spec §6.
type Config struct {
	Version     int
	Project     Project
	Index       Index
	Performance Performance
	Enrichment  Enrichment
	Search      Search
	Benchmark   Benchmark
	Include     []string
	Exclude     []string
}

type Project struct {
	Root string
	Name string
}

type Index struct {
	MaxFileSize      int64
	MaxTotalSizeMB   int64
	MaxFileCount     int
	RespectGitignore bool
	WatchMode        bool
	WatchDebounceMs  int // §4.12 default 1000
	DepDebounceMs    int // §4.12 default 5000
	IncludeExtensions []string
}

type Performance struct {
	MaxGoroutines       int // 0 = auto-detect (NumCPU)
	ParallelFileWorkers int // 0 = auto-detect
	IndexingTimeoutSec  int
}

// Enrichment controls the C5 orchestrator.
type Enrichment struct {
	Enabled bool
	Types   []model.DocumentType
}

// Search controls the Learned Weights defaults and the Hybrid Retriever.
type Search struct {
	Model                string // embedding model identifier
	SearchWeights        map[model.UseCase]map[model.DocumentType]float64
	InitialLimit         int // candidate list size per channel, default 30
	FinalLimit           int // default 10
	MaxTokens            int // context budget, default 8000
	RerankEnabled        bool
	MinRerankScore       int // default 3
	MinRouterConfidence  float64 // default 0.6 — §4.7 min_confidence for accepting an LLM classification
}

// Benchmark controls C13's scheduling.
type Benchmark struct {
	LargeModelThresholdBillions float64 // default 20, 0 disables isolation
	LocalModelParallelism       int     // default 1
	EvaluationEnabled           map[string]bool
	ParallelEvaluation          bool
	JudgeBatchSize              int           // default 10
	BatchTimeoutSec             int           // default 120
	SlowBatchTimeoutSec         int           // default 300, interactive-subprocess models
	MaxConcurrentBatches        int           // default 50
}

// Default returns a Config populated with every spec-mandated default.
func Default(root string) *Config {
	workers := runtime.NumCPU()
	return &Config{
		Version: 1,
		Project: Project{Root: root, Name: ""},
		Index: Index{
			MaxFileSize:       10 * 1024 * 1024,
			MaxTotalSizeMB:    500,
			MaxFileCount:      10000,
			RespectGitignore:  true,
			WatchMode:         true,
			WatchDebounceMs:   1000,
			DepDebounceMs:     5000,
			IncludeExtensions: nil,
		},
		Performance: Performance{
			MaxGoroutines:       workers,
			ParallelFileWorkers: workers,
			IndexingTimeoutSec:  120,
		},
		Enrichment: Enrichment{
			Enabled: true,
			Types: []model.DocumentType{
				model.DocFileSummary, model.DocSymbolSummary, model.DocIdiom,
				model.DocUsageExample, model.DocAntiPattern, model.DocProjectDoc,
			},
		},
		Search: Search{
			SearchWeights:       defaultSearchWeights(),
			InitialLimit:        30,
			FinalLimit:          10,
			MaxTokens:           8000,
			RerankEnabled:       false,
			MinRerankScore:      3,
			MinRouterConfidence: 0.6,
		},
		Benchmark: Benchmark{
			LargeModelThresholdBillions: 20,
			LocalModelParallelism:       1,
			EvaluationEnabled: map[string]bool{
				"iterative": true, "judge": true, "contrastive": true,
				"retrieval": true, "downstream": true, "self": true,
			},
			ParallelEvaluation:   true,
			JudgeBatchSize:       10,
			BatchTimeoutSec:      120,
			SlowBatchTimeoutSec:  300,
			MaxConcurrentBatches: 50,
		},
		Exclude: DefaultIgnoredDirs(),
	}
}

func defaultSearchWeights() map[model.UseCase]map[model.DocumentType]float64 {
	out := make(map[model.UseCase]map[model.DocumentType]float64, 3)
	for _, uc := range []model.UseCase{model.UseCaseFIM, model.UseCaseSearch, model.UseCaseNavigation} {
		copied := make(map[model.DocumentType]float64, len(model.DefaultStaticTypeWeights))
		for k, v := range model.DefaultStaticTypeWeights {
			copied[k] = v
		}
		out[uc] = copied
	}
	return out
}

// DefaultIgnoredDirs is the §9 glossary's "ignored directories" default.
func DefaultIgnoredDirs() []string {
	return []string{
		"node_modules", ".git", "dist", "build", "__pycache__",
		".next", ".nuxt", "coverage", ".cache", ".semindex",
	}
}

// DependencyManifests is the §6 "dependency manifests monitored" list.
var DependencyManifests = []string{
	"package.json", "requirements.txt", "pyproject.toml", "go.mod", "Cargo.toml",
}
