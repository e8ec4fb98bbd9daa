package semantic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuzzyMatcherMatchesCloseMisspelling(t *testing.T) {
	fm := NewFuzzyMatcher(0.80, JaroWinkler)
	require.True(t, fm.Match("GetUserById", "GetUserByID"))
}

func TestFuzzyMatcherRejectsUnrelatedNames(t *testing.T) {
	fm := NewFuzzyMatcher(0.80, JaroWinkler)
	require.False(t, fm.Match("GetUserById", "DeleteSession"))
}

func TestFuzzyMatcherIdenticalStringsScoreOne(t *testing.T) {
	fm := NewFuzzyMatcher(0.80, JaroWinkler)
	require.Equal(t, 1.0, fm.Similarity("Foo", "Foo"))
}

func TestFuzzyMatcherEmptyOperandScoresZero(t *testing.T) {
	fm := NewFuzzyMatcher(0.80, JaroWinkler)
	require.Equal(t, 0.0, fm.Similarity("Foo", ""))
}

func TestFindMatchesSortsBySimilarityDescending(t *testing.T) {
	fm := NewFuzzyMatcher(0.5, JaroWinkler)
	matches := fm.FindMatches("GetUser", []string{"GetUsers", "DeleteSession", "GetUserById"})
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		require.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
}

func TestLevenshteinAndCosineAlgorithmsAreSelectable(t *testing.T) {
	lev := NewFuzzyMatcher(0.5, Levenshtein)
	require.Greater(t, lev.Similarity("kitten", "sitting"), 0.0)

	cos := NewFuzzyMatcher(0.5, Cosine)
	require.Greater(t, cos.Similarity("night", "nacht"), 0.0)
}

func TestInvalidThresholdFallsBackToDefault(t *testing.T) {
	fm := NewFuzzyMatcher(2.0, "")
	require.Equal(t, defaultThreshold, fm.threshold)
	require.Equal(t, JaroWinkler, fm.algorithm)
}
