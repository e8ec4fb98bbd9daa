package semantic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCamelCase(t *testing.T) {
	ns := NewNameSplitter()
	require.Equal(t, []string{"get", "user", "by", "id"}, ns.Split("getUserByID"))
}

func TestSplitSnakeCase(t *testing.T) {
	ns := NewNameSplitter()
	require.Equal(t, []string{"get", "user", "by", "id"}, ns.Split("get_user_by_id"))
}

func TestSplitAcronymBoundary(t *testing.T) {
	ns := NewNameSplitter()
	require.Equal(t, []string{"http", "server"}, ns.Split("HTTPServer"))
}

func TestSplitDigitBoundary(t *testing.T) {
	ns := NewNameSplitter()
	require.Equal(t, []string{"base", "64", "encode"}, ns.Split("base64Encode"))
}

func TestSplitEmptyNameReturnsNil(t *testing.T) {
	ns := NewNameSplitter()
	require.Nil(t, ns.Split(""))
}

func TestSplitIsCachedAcrossCalls(t *testing.T) {
	ns := NewNameSplitter()
	first := ns.Split("myVariableName")
	second := ns.Split("myVariableName")
	require.Equal(t, first, second)
}

func TestSplitToSetDeduplicates(t *testing.T) {
	ns := NewNameSplitter()
	set := ns.SplitToSet("getGetterGet")
	require.True(t, set["get"])
	require.True(t, set["getter"])
}
