package repomap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
)

func strPtr(s string) *string { return &s }

func TestGenerateOrdersFilesByPageRankDesc(t *testing.T) {
	symbols := []model.SymbolDefinition{
		{ID: "a1", Kind: model.SymbolFunction, Name: "Low", FilePath: "low.go", StartLine: 1, PageRankScore: 0.01},
		{ID: "b1", Kind: model.SymbolFunction, Name: "High", FilePath: "high.go", StartLine: 1, PageRankScore: 0.9},
	}
	g := New(nil)
	out := g.Generate(symbols, 1000)

	require.Less(t, strings.Index(out, "high.go"), strings.Index(out, "low.go"))
}

func TestGenerateNestsMethodsUnderClass(t *testing.T) {
	symbols := []model.SymbolDefinition{
		{ID: "c1", Kind: model.SymbolClass, Name: "Repo", FilePath: "repo.go", StartLine: 1, PageRankScore: 0.5},
		{ID: "m1", Kind: model.SymbolMethod, Name: "Save", FilePath: "repo.go", StartLine: 5, ParentID: strPtr("c1"), PageRankScore: 0.3},
	}
	g := New(nil)
	out := g.Generate(symbols, 1000)

	classIdx := strings.Index(out, "Repo")
	methodIdx := strings.Index(out, "Save")
	require.True(t, classIdx >= 0 && methodIdx > classIdx)
}

func TestGenerateCapsSymbolsPerFile(t *testing.T) {
	var symbols []model.SymbolDefinition
	for i := 0; i < 30; i++ {
		symbols = append(symbols, model.SymbolDefinition{
			ID: string(rune('a' + i)), Kind: model.SymbolFunction,
			Name: string(rune('a' + i)), FilePath: "big.go", StartLine: i + 1,
		})
	}
	g := New(nil)
	out := g.Generate(symbols, 100000)

	require.Equal(t, maxSymbolsPerFile, strings.Count(out, ": function "))
}

func TestGenerateStopsAtTokenBudget(t *testing.T) {
	var symbols []model.SymbolDefinition
	for i := 0; i < 50; i++ {
		symbols = append(symbols, model.SymbolDefinition{
			ID: string(rune('a' + i)), Kind: model.SymbolFunction,
			Name: strings.Repeat("x", 50), FilePath: string(rune('a'+i)) + ".go", StartLine: 1,
		})
	}
	g := New(nil)
	out := g.Generate(symbols, 10)

	require.Less(t, len(out), 2000)
}

func TestGenerateForQueryRanksNameMatchAboveUnrelated(t *testing.T) {
	symbols := []model.SymbolDefinition{
		{ID: "a1", Kind: model.SymbolFunction, Name: "ValidateToken", FilePath: "auth.go", StartLine: 1, PageRankScore: 0.1},
		{ID: "b1", Kind: model.SymbolFunction, Name: "Unrelated", FilePath: "other.go", StartLine: 1, PageRankScore: 0.5},
	}
	g := New(nil)
	out := g.GenerateForQuery(symbols, "ValidateToken", 1000)

	require.Less(t, strings.Index(out, "auth.go"), strings.Index(out, "other.go"))
}

func TestGenerateForQueryFuzzyMatchesNearMissName(t *testing.T) {
	symbols := []model.SymbolDefinition{
		{ID: "a1", Kind: model.SymbolFunction, Name: "ValidateTokn", FilePath: "auth.go", StartLine: 1, PageRankScore: 0.1},
		{ID: "b1", Kind: model.SymbolFunction, Name: "Unrelated", FilePath: "other.go", StartLine: 1, PageRankScore: 0.5},
	}
	g := New(nil)
	out := g.GenerateForQuery(symbols, "ValidateToken", 1000)

	require.Less(t, strings.Index(out, "auth.go"), strings.Index(out, "other.go"))
}

func TestGenerateForQueryCapsCandidatesAtFifty(t *testing.T) {
	var symbols []model.SymbolDefinition
	for i := 0; i < 80; i++ {
		symbols = append(symbols, model.SymbolDefinition{
			ID: string(rune(i)), Kind: model.SymbolFunction,
			Name: "match", FilePath: string(rune('a'+i%26)) + "/f.go", StartLine: i + 1,
		})
	}
	g := New(nil)
	out := g.GenerateForQuery(symbols, "match", 1000000)

	require.LessOrEqual(t, strings.Count(out, ": function "), maxQueryCandidates)
}
