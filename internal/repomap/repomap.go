// Package repomap implements the Repo-Map Generator (C10): a token-budgeted
// structural outline of a project, prioritised by PageRank and optionally
// scored against a query. It is a pure function over an already-scored
// symbol set — it owns no storage of its own, mirroring how C8's retriever
// composes the document index rather than reimplementing it.
package repomap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/semindex/internal/cache"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/semantic"
	"github.com/standardbeagle/semindex/internal/tokenest"
)

const (
	maxSymbolsPerFile  = 20
	maxMethodsPerClass = 10
	maxQueryCandidates = 50

	// fuzzyNameThreshold gates the near-miss name bonus in scoreForQuery —
	// looser than semantic's 0.80 default since it only ever adds to a
	// substring-match score, never competes with one directly.
	fuzzyNameThreshold = 0.75
)

var nameFuzzy = semantic.NewFuzzyMatcher(fuzzyNameThreshold, semantic.JaroWinkler)

// Generator renders symbol outlines within a token budget.
type Generator struct {
	estimator tokenest.Estimator
	cache     *cache.Cache[string]
}

// New constructs a Generator. A nil estimator falls back to the spec's
// 4-chars-per-token default.
func New(estimator tokenest.Estimator) *Generator {
	if estimator == nil {
		estimator = tokenest.CharHeuristic{}
	}
	return &Generator{estimator: estimator}
}

// SetCache attaches a result cache so repeated Generate/GenerateForQuery
// calls over an unchanged symbol set skip recomposition — C10 reruns on
// every repo-map request, including ones the MCP host issues back-to-back
// for the same query.
func (g *Generator) SetCache(c *cache.Cache[string]) {
	g.cache = c
}

// Generate implements §4.10's generate(max_tokens): files are ordered by
// the summed PageRank of their contained symbols, each file's symbols are
// emitted in line order, and methods nest one level under their class.
func (g *Generator) Generate(symbols []model.SymbolDefinition, maxTokens int) string {
	if g.cache == nil {
		return g.render(rankFiles(symbols), maxTokens)
	}
	key := cache.RepoMapKey(fingerprint(symbols), "", maxTokens)
	if cached, ok := g.cache.Get(key); ok {
		return cached
	}
	out := g.render(rankFiles(symbols), maxTokens)
	g.cache.Put(key, out)
	return out
}

// GenerateForQuery implements generate_for_query: every symbol is scored
// against the query (10·name_match + 5·signature_match + 3·path_match,
// scaled by 1+PageRank·100), the top 50 survive, and the same file-grouped
// emission applies to the survivors.
func (g *Generator) GenerateForQuery(symbols []model.SymbolDefinition, query string, maxTokens int) string {
	if g.cache != nil {
		key := cache.RepoMapKey(fingerprint(symbols), query, maxTokens)
		if cached, ok := g.cache.Get(key); ok {
			return cached
		}
		out := g.generateForQuery(symbols, query, maxTokens)
		g.cache.Put(key, out)
		return out
	}
	return g.generateForQuery(symbols, query, maxTokens)
}

func (g *Generator) generateForQuery(symbols []model.SymbolDefinition, query string, maxTokens int) string {
	scored := scoreForQuery(symbols, query)
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > maxQueryCandidates {
		scored = scored[:maxQueryCandidates]
	}
	top := make([]model.SymbolDefinition, len(scored))
	for i, s := range scored {
		top[i] = s.symbol
	}
	return g.render(rankFiles(top), maxTokens)
}

type fileGroup struct {
	path    string
	score   float64
	symbols []model.SymbolDefinition
}

// rankFiles groups symbols by file and orders the groups by summed
// PageRank desc, breaking ties on path for a stable order.
func rankFiles(symbols []model.SymbolDefinition) []fileGroup {
	byFile := map[string][]model.SymbolDefinition{}
	for _, s := range symbols {
		byFile[s.FilePath] = append(byFile[s.FilePath], s)
	}
	groups := make([]fileGroup, 0, len(byFile))
	for path, syms := range byFile {
		score := 0.0
		for _, s := range syms {
			score += s.PageRankScore
		}
		groups = append(groups, fileGroup{path: path, score: score, symbols: syms})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].score != groups[j].score {
			return groups[i].score > groups[j].score
		}
		return groups[i].path < groups[j].path
	})
	return groups
}

// render emits each file's outline in order, stopping before the section
// that would push cumulative estimated tokens past maxTokens.
func (g *Generator) render(groups []fileGroup, maxTokens int) string {
	var b strings.Builder
	spent := 0
	for _, fg := range groups {
		section := renderFile(fg)
		sectionTokens := g.estimator.Estimate(section)
		if spent+sectionTokens > maxTokens {
			break
		}
		b.WriteString(section)
		spent += sectionTokens
	}
	return b.String()
}

func renderFile(fg fileGroup) string {
	byID := make(map[string]model.SymbolDefinition, len(fg.symbols))
	for _, s := range fg.symbols {
		byID[s.ID] = s
	}

	var top []model.SymbolDefinition
	for _, s := range fg.symbols {
		if s.Kind == model.SymbolMethod && s.ParentID != nil {
			if _, ok := byID[*s.ParentID]; ok {
				continue // rendered nested under its parent below
			}
		}
		top = append(top, s)
	}
	sort.Slice(top, func(i, j int) bool { return top[i].StartLine < top[j].StartLine })
	if len(top) > maxSymbolsPerFile {
		top = top[:maxSymbolsPerFile]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", fg.path)
	for _, s := range top {
		fmt.Fprintf(&b, "  %s\n", outlineLine(s))
		for i, c := range childMethods(fg.symbols, s.ID) {
			if i >= maxMethodsPerClass {
				break
			}
			fmt.Fprintf(&b, "    %s\n", outlineLine(c))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func childMethods(symbols []model.SymbolDefinition, parentID string) []model.SymbolDefinition {
	var out []model.SymbolDefinition
	for _, s := range symbols {
		if s.Kind == model.SymbolMethod && s.ParentID != nil && *s.ParentID == parentID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}

func outlineLine(s model.SymbolDefinition) string {
	if s.Signature != "" {
		return fmt.Sprintf("%d: %s %s", s.StartLine, s.Kind, s.Signature)
	}
	return fmt.Sprintf("%d: %s %s", s.StartLine, s.Kind, s.Name)
}

type scoredSymbol struct {
	symbol model.SymbolDefinition
	score  float64
}

func scoreForQuery(symbols []model.SymbolDefinition, query string) []scoredSymbol {
	q := strings.ToLower(strings.TrimSpace(query))
	scored := make([]scoredSymbol, 0, len(symbols))
	for _, s := range symbols {
		var nameMatch, sigMatch, pathMatch float64
		lowerName := strings.ToLower(s.Name)
		if q != "" && strings.Contains(lowerName, q) {
			nameMatch = 1
		} else if q != "" && nameFuzzy.Match(q, lowerName) {
			// A query that doesn't substring-match might still be a
			// near-miss on the symbol's own name (typo, partial rename).
			nameMatch = 0.5
		}
		if q != "" && strings.Contains(strings.ToLower(s.Signature), q) {
			sigMatch = 1
		}
		if q != "" && strings.Contains(strings.ToLower(s.FilePath), q) {
			pathMatch = 1
		}
		base := 10*nameMatch + 5*sigMatch + 3*pathMatch
		scored = append(scored, scoredSymbol{symbol: s, score: base * (1 + s.PageRankScore*100)})
	}
	return scored
}

// fingerprint identifies a symbol set for cache keying: IDs are sorted so
// the fingerprint is stable regardless of the caller's slice order, then
// hashed the same way internal/cache.FingerprintSymbolIDs does for C11.
func fingerprint(symbols []model.SymbolDefinition) string {
	ids := make([]string, len(symbols))
	for i, s := range symbols {
		ids[i] = s.ID
	}
	sort.Strings(ids)
	return cache.FingerprintSymbolIDs(ids)
}
