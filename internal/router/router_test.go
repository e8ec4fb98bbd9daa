package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteClassifiesBareIdentifierAsSymbolLookup(t *testing.T) {
	r := New(nil, 0)
	strategy := r.Route(context.Background(), "UserAuthenticator")
	require.Equal(t, IntentSymbolLookup, strategy.Intent)
	require.Equal(t, ChannelSymbolKeyword, strategy.Primary)
	require.Equal(t, "UserAuthenticator", strategy.Entities.NameHint)
}

func TestRouteClassifiesStructuralQuery(t *testing.T) {
	r := New(nil, 0)
	strategy := r.Route(context.Background(), "what calls ValidateToken")
	require.Equal(t, IntentStructural, strategy.Intent)
	require.Equal(t, ChannelKeywordHybrid, strategy.Primary)
}

func TestRouteClassifiesLocationQuery(t *testing.T) {
	r := New(nil, 0)
	strategy := r.Route(context.Background(), "tests for auth.go")
	require.Equal(t, IntentLocation, strategy.Intent)
	require.Equal(t, ChannelPathFilter, strategy.Primary)
}

func TestRouteClassifiesSimilarityQuery(t *testing.T) {
	r := New(nil, 0)
	strategy := r.Route(context.Background(), "find code similar to this retry loop")
	require.Equal(t, IntentSimilarity, strategy.Intent)
	require.InDelta(t, 0.80, strategy.VectorWeight, 1e-9)
}

func TestRouteDefaultsToSemantic(t *testing.T) {
	r := New(nil, 0)
	strategy := r.Route(context.Background(), "how does the retry backoff behave under load")
	require.Equal(t, IntentSemantic, strategy.Intent)
	require.Equal(t, ChannelVectorHybrid, strategy.Primary)
}
