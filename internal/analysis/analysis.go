// Package analysis implements the Analysis Engine (C11): dead-code, test-gap,
// and change-impact queries over the reference graph and its PageRank
// scores. It is grounded on the reference graph's own BFS idioms
// (internal/symbolgraph.Graph.TransitiveImpact) generalized with
// depth-tracking and file grouping, rather than a fresh traversal library.
package analysis

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/standardbeagle/semindex/internal/cache"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/symbolgraph"
)

const (
	defaultMaxPageRank = 0.001
	defaultMinPageRank = 0.01
	defaultMaxDepth    = 10
)

// Engine answers structural queries against one snapshot of the symbol set
// and its resolved reference graph.
type Engine struct {
	graph       *symbolgraph.Graph
	symbols     map[string]model.SymbolDefinition
	fingerprint string

	deadCodeCache *cache.Cache[[]model.SymbolDefinition]
	testGapCache  *cache.Cache[[]model.SymbolDefinition]
}

// New builds an Engine over a PageRank-scored symbol set and its graph.
// The symbol set is a fixed snapshot for this Engine's lifetime, so its
// fingerprint is computed once here rather than per query.
func New(graph *symbolgraph.Graph, symbols []model.SymbolDefinition) *Engine {
	byID := make(map[string]model.SymbolDefinition, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return &Engine{graph: graph, symbols: byID, fingerprint: cache.FingerprintSymbolIDs(ids)}
}

// SetCaches attaches result caches for DeadCode and TestGaps, both of
// which otherwise rescan the full symbol set on every call — the same
// recomposition cost C10's repo-map generator caches against.
func (e *Engine) SetCaches(deadCode, testGaps *cache.Cache[[]model.SymbolDefinition]) {
	e.deadCodeCache = deadCode
	e.testGapCache = testGaps
}

// DeadCodeOptions parameterizes DeadCode.
type DeadCodeOptions struct {
	MaxPageRank     float64 // default 0.001
	IncludeExported bool    // if true, skips the unexported-only filter
}

// DeadCode yields symbols with no callers and a PageRank at or below
// MaxPageRank, excluding test files, sorted most-likely-dead first.
func (e *Engine) DeadCode(opts DeadCodeOptions) []model.SymbolDefinition {
	maxPR := opts.MaxPageRank
	if maxPR == 0 {
		maxPR = defaultMaxPageRank
	}

	if e.deadCodeCache != nil {
		key := cache.AnalysisKey(deadCodeKey(maxPR, opts.IncludeExported), e.fingerprint)
		if cached, ok := e.deadCodeCache.Get(key); ok {
			return cached
		}
		out := e.deadCode(maxPR, opts.IncludeExported)
		e.deadCodeCache.Put(key, out)
		return out
	}
	return e.deadCode(maxPR, opts.IncludeExported)
}

func (e *Engine) deadCode(maxPR float64, includeExported bool) []model.SymbolDefinition {
	var out []model.SymbolDefinition
	for _, sym := range e.symbols {
		if isTestFile(sym.FilePath) {
			continue
		}
		if !includeExported && sym.IsExported {
			continue
		}
		if len(e.graph.Callers(sym.ID)) != 0 {
			continue
		}
		if sym.PageRankScore > maxPR {
			continue
		}
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageRankScore < out[j].PageRankScore })
	return out
}

// TestGapOptions parameterizes TestGaps.
type TestGapOptions struct {
	MinPageRank float64 // default 0.01
}

// TestGaps yields non-test symbols important enough (PageRank at or above
// MinPageRank) that have no caller in a test file, sorted most-important
// first.
func (e *Engine) TestGaps(opts TestGapOptions) []model.SymbolDefinition {
	minPR := opts.MinPageRank
	if minPR == 0 {
		minPR = defaultMinPageRank
	}

	if e.testGapCache != nil {
		key := cache.AnalysisKey(testGapsKey(minPR), e.fingerprint)
		if cached, ok := e.testGapCache.Get(key); ok {
			return cached
		}
		out := e.testGaps(minPR)
		e.testGapCache.Put(key, out)
		return out
	}
	return e.testGaps(minPR)
}

func (e *Engine) testGaps(minPR float64) []model.SymbolDefinition {
	var out []model.SymbolDefinition
	for _, sym := range e.symbols {
		if isTestFile(sym.FilePath) {
			continue
		}
		if sym.PageRankScore < minPR {
			continue
		}
		if e.hasTestCaller(sym.ID) {
			continue
		}
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageRankScore > out[j].PageRankScore })
	return out
}

func (e *Engine) hasTestCaller(symbolID string) bool {
	for _, callerID := range e.graph.Callers(symbolID) {
		if caller, ok := e.symbols[callerID]; ok && isTestFile(caller.FilePath) {
			return true
		}
	}
	return false
}

// ImpactHit is one symbol reachable from an impact BFS, tagged with its
// distance from the target.
type ImpactHit struct {
	Symbol model.SymbolDefinition
	Depth  int
}

// Impact performs a breadth-first walk over callers (in_edges) from
// symbolID up to maxDepth hops (0 means the spec default of 10), sorted by
// depth asc then PageRank desc.
func (e *Engine) Impact(symbolID string, maxDepth int) []ImpactHit {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	visited := map[string]int{symbolID: 0}
	frontier := []string{symbolID}
	depth := 0
	for len(frontier) > 0 && depth < maxDepth {
		var next []string
		for _, cur := range frontier {
			for _, caller := range e.graph.Callers(cur) {
				if _, seen := visited[caller]; !seen {
					visited[caller] = depth + 1
					next = append(next, caller)
				}
			}
		}
		frontier = next
		depth++
	}
	delete(visited, symbolID)

	hits := make([]ImpactHit, 0, len(visited))
	for id, d := range visited {
		hits = append(hits, ImpactHit{Symbol: e.symbols[id], Depth: d})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Depth != hits[j].Depth {
			return hits[i].Depth < hits[j].Depth
		}
		return hits[i].Symbol.PageRankScore > hits[j].Symbol.PageRankScore
	})
	return hits
}

// ImpactByFile runs Impact and groups the hits by file path, preserving
// each group's depth/PageRank order.
func (e *Engine) ImpactByFile(symbolID string, maxDepth int) map[string][]ImpactHit {
	grouped := map[string][]ImpactHit{}
	for _, hit := range e.Impact(symbolID, maxDepth) {
		grouped[hit.Symbol.FilePath] = append(grouped[hit.Symbol.FilePath], hit)
	}
	return grouped
}

// testFilePatterns implements the language-aware test-file recognition
// table: TS *.test.ts(x)/*.spec.ts(x)/__tests__/, Python test_*.py/*_test.py/
// tests/, Go *_test.go, Rust tests.rs/tests/, Java *Test.java/*IT.java/
// src/test/, C/C++ *_test.c(pp)/test_*.c(pp)/tests/.
var testFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.(test|spec)\.tsx?$`),
	regexp.MustCompile(`(^|/)__tests__/`),
	regexp.MustCompile(`(^|/)test_[^/]+\.py$`),
	regexp.MustCompile(`_test\.py$`),
	regexp.MustCompile(`_test\.go$`),
	regexp.MustCompile(`(^|/)tests\.rs$`),
	regexp.MustCompile(`(Test|IT)\.java$`),
	regexp.MustCompile(`(^|/)src/test/`),
	regexp.MustCompile(`_test\.c(pp)?$`),
	regexp.MustCompile(`(^|/)test_[^/]+\.c(pp)?$`),
	regexp.MustCompile(`(^|/)tests?/`),
}

func deadCodeKey(maxPR float64, includeExported bool) string {
	return "dead_code:" + strconv.FormatFloat(maxPR, 'g', -1, 64) + ":" + strconv.FormatBool(includeExported)
}

func testGapsKey(minPR float64) string {
	return "test_gaps:" + strconv.FormatFloat(minPR, 'g', -1, 64)
}

func isTestFile(path string) bool {
	for _, re := range testFilePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
