package symbolgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/parser"
)

func TestExtractSymbolsResolvesGoReceiverParent(t *testing.T) {
	src := `package main

type Calculator struct{}

func (c *Calculator) Multiply(a, b int) int {
	return a * b
}
`
	pt, ok, err := parser.Parse(context.Background(), "calc.go", ".go", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := parser.ExtractUnits(pt)
	require.NoError(t, err)

	symbols := ExtractSymbols(units)

	var structID string
	var method *model.SymbolDefinition
	for i := range symbols {
		if symbols[i].Kind == model.SymbolStruct {
			structID = symbols[i].ID
		}
		if symbols[i].Kind == model.SymbolMethod {
			method = &symbols[i]
		}
	}
	require.NotNil(t, method)
	require.NotNil(t, method.ParentID)
	require.Equal(t, structID, *method.ParentID)
}

func TestExtractReferencesFindsCallSite(t *testing.T) {
	src := `package main

func helper() int {
	return 1
}

func caller() int {
	return helper()
}
`
	pt, ok, err := parser.Parse(context.Background(), "f.go", ".go", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := parser.ExtractUnits(pt)
	require.NoError(t, err)
	symbols := ExtractSymbols(units)

	refs := ExtractReferences(pt, symbols)

	found := false
	for _, r := range refs {
		if r.ToSymbolName == "helper" && r.Kind == model.RefCall {
			found = true
		}
	}
	require.True(t, found)
}

func TestReferenceDedupByFromToKind(t *testing.T) {
	src := `package main

func helper() int {
	return 1
}

func caller() int {
	helper()
	return helper()
}
`
	pt, ok, err := parser.Parse(context.Background(), "f.go", ".go", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := parser.ExtractUnits(pt)
	require.NoError(t, err)
	symbols := ExtractSymbols(units)

	refs := ExtractReferences(pt, symbols)

	count := 0
	for _, r := range refs {
		if r.ToSymbolName == "helper" && r.Kind == model.RefCall {
			count++
		}
	}
	require.Equal(t, 1, count, "duplicate call sites to the same target must merge into one reference")
}
