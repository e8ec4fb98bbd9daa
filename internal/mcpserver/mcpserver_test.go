package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/analysis"
	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/symbolgraph"
)

func callToolRequest(t *testing.T, args any) *mcp.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}}
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func engineWithOneDeadSymbol() *analysis.Engine {
	symbols := []model.SymbolDefinition{
		{ID: "s1", Name: "unusedHelper", FilePath: "a.go", StartLine: 10, PageRankScore: 0.0001, IsExported: false},
		{ID: "s2", Name: "main", FilePath: "main.go", StartLine: 1, PageRankScore: 0.05, IsExported: false},
	}
	refs := []model.SymbolReference{
		{FromSymbolID: "s2", ToSymbolName: "s1", ToSymbolID: nil, Kind: model.RefCall, IsResolved: false},
	}
	graph := symbolgraph.BuildGraph([]string{"s1", "s2"}, refs)
	return analysis.New(graph, symbols)
}

func TestDeadCodeHandlerReturnsLowPageRankUncalledSymbol(t *testing.T) {
	deps := Deps{Analysis: func(ctx context.Context) (*analysis.Engine, error) {
		return engineWithOneDeadSymbol(), nil
	}}

	res, err := deadCodeHandler(deps)(context.Background(), callToolRequest(t, deadCodeParams{}))
	require.NoError(t, err)

	out := decodeResult(t, res)
	syms, ok := out["symbols"].([]any)
	require.True(t, ok)
	require.Len(t, syms, 1)
	require.Equal(t, "unusedHelper", syms[0].(map[string]any)["name"])
}

func TestTestGapsHandlerSkipsLowPageRankSymbols(t *testing.T) {
	deps := Deps{Analysis: func(ctx context.Context) (*analysis.Engine, error) {
		return engineWithOneDeadSymbol(), nil
	}}

	res, err := testGapsHandler(deps)(context.Background(), callToolRequest(t, testGapParams{MinPageRank: 0.5}))
	require.NoError(t, err)

	out := decodeResult(t, res)
	syms, ok := out["symbols"].([]any)
	require.True(t, ok)
	require.Empty(t, syms)
}

func TestSearchHandlerRejectsEmptyQuery(t *testing.T) {
	deps := Deps{}
	res, err := searchHandler(deps)(context.Background(), callToolRequest(t, searchParams{Query: ""}))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestSymbolSummariesPreservesOrder(t *testing.T) {
	syms := []model.SymbolDefinition{
		{Name: "a", FilePath: "x.go", StartLine: 1, PageRankScore: 0.2},
		{Name: "b", FilePath: "y.go", StartLine: 2, PageRankScore: 0.1},
	}
	out := symbolSummaries(syms)
	require.Equal(t, "a", out[0].Name)
	require.Equal(t, "b", out[1].Name)
}
