package symbolgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
)

func TestPageRankNormalizesToOne(t *testing.T) {
	ids := []string{"a", "b", "c"}
	refs := []model.SymbolReference{
		{FromSymbolID: "a", ToSymbolName: "b", ToSymbolID: strPtr("b"), IsResolved: true, Kind: model.RefCall},
		{FromSymbolID: "b", ToSymbolName: "c", ToSymbolID: strPtr("c"), IsResolved: true, Kind: model.RefCall},
		{FromSymbolID: "c", ToSymbolName: "a", ToSymbolID: strPtr("a"), IsResolved: true, Kind: model.RefCall},
	}
	g := BuildGraph(ids, refs)
	scores := PageRank(g)

	total := 0.0
	for _, s := range scores {
		total += s
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestPageRankDanglingNodeRedistributes(t *testing.T) {
	ids := []string{"a", "b"}
	refs := []model.SymbolReference{
		{FromSymbolID: "a", ToSymbolName: "b", ToSymbolID: strPtr("b"), IsResolved: true, Kind: model.RefCall},
	}
	g := BuildGraph(ids, refs)
	scores := PageRank(g)

	total := 0.0
	for _, s := range scores {
		require.Greater(t, s, 0.0)
		total += s
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestCallersAndCallees(t *testing.T) {
	ids := []string{"a", "b", "c"}
	refs := []model.SymbolReference{
		{FromSymbolID: "a", ToSymbolName: "c", ToSymbolID: strPtr("c"), IsResolved: true, Kind: model.RefCall},
		{FromSymbolID: "b", ToSymbolName: "c", ToSymbolID: strPtr("c"), IsResolved: true, Kind: model.RefCall},
	}
	g := BuildGraph(ids, refs)

	require.ElementsMatch(t, []string{"a", "b"}, g.Callers("c"))
	require.ElementsMatch(t, []string{"c"}, g.Callees("a"))
}

func TestTransitiveImpact(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	refs := []model.SymbolReference{
		{FromSymbolID: "a", ToSymbolName: "b", ToSymbolID: strPtr("b"), IsResolved: true, Kind: model.RefCall},
		{FromSymbolID: "b", ToSymbolName: "c", ToSymbolID: strPtr("c"), IsResolved: true, Kind: model.RefCall},
	}
	g := BuildGraph(ids, refs)

	impact := g.TransitiveImpact("c", 0)
	require.ElementsMatch(t, []string{"a", "b"}, impact)
	require.NotContains(t, impact, "d")
}

func strPtr(s string) *string { return &s }
