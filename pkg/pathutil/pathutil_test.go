package pathutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowedExcludesBeforeCheckingInclude(t *testing.T) {
	m := New([]string{"vendor/**"}, []string{"**/*.go"})
	require.False(t, m.Allowed("vendor/dep.go"))
	require.True(t, m.Allowed("internal/foo.go"))
	require.False(t, m.Allowed("internal/foo.md"))
}

func TestEmptyIncludeListMeansIncludeEverything(t *testing.T) {
	m := New([]string{"node_modules/**"}, nil)
	require.True(t, m.Allowed("anything.txt"))
	require.False(t, m.Allowed("node_modules/pkg/index.js"))
}

func TestMalformedPatternIsTreatedAsNoMatch(t *testing.T) {
	m := New([]string{"["}, nil)
	require.True(t, m.Allowed("foo.go"))
}
