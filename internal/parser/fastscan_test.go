package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFastScanHasUnitsFindsTopLevelFunction(t *testing.T) {
	has, scanned := fastScanHasUnits([]byte("function greet(name) { return 'hi ' + name; }"))
	require.True(t, scanned)
	require.True(t, has)
}

func TestFastScanHasUnitsReturnsFalseForDeclarationFreeScript(t *testing.T) {
	has, scanned := fastScanHasUnits([]byte("console.log('loaded'); var x = 1 + 2;"))
	require.True(t, scanned)
	require.False(t, has)
}

func TestFastScanHasUnitsDoesNotScanEntirelyForParseFailure(t *testing.T) {
	// ES module syntax go-fast's ES5 parser cannot handle.
	_, scanned := fastScanHasUnits([]byte("export default function() {}"))
	require.False(t, scanned)
}

func TestParseSkipsTreeSitterForDeclarationFreeJSFile(t *testing.T) {
	pt, ok, err := Parse(context.Background(), "boot.js", ".js", []byte("console.log('booting');"), "h1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, pt)
}

func TestParseStillRunsTreeSitterWhenJSHasAFunction(t *testing.T) {
	pt, ok, err := Parse(context.Background(), "app.js", ".js", []byte("function main() { return 1; }"), "h2")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, pt)
	pt.Close()
}
