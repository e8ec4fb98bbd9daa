package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetMissThenPutThenHit(t *testing.T) {
	c := New[string](10, time.Hour)

	_, ok := c.Get("k")
	require.False(t, ok)

	c.Put("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", got)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.InDelta(t, 0.5, stats.HitRate(), 1e-9)
}

func TestEntriesEvictedPastCapacity(t *testing.T) {
	c := New[int](2, time.Hour)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	require.LessOrEqual(t, c.Stats().Entries, 2)
}

func TestExpiredEntryIsTreatedAsMiss(t *testing.T) {
	c := New[int](10, 10*time.Millisecond)
	c.Put("k", 1)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestClearDropsEntries(t *testing.T) {
	c := New[int](10, time.Hour)
	c.Put("k", 1)
	c.Clear()

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestFingerprintSymbolIDsIsOrderSensitiveButDeterministic(t *testing.T) {
	a := FingerprintSymbolIDs([]string{"1", "2", "3"})
	b := FingerprintSymbolIDs([]string{"1", "2", "3"})
	c := FingerprintSymbolIDs([]string{"3", "2", "1"})

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestRepoMapKeyAndAnalysisKeyAreDistinctPerDiscriminator(t *testing.T) {
	require.NotEqual(t, RepoMapKey("fp", "a", 100), RepoMapKey("fp", "b", 100))
	require.NotEqual(t, AnalysisKey("dead_code", "fp1"), AnalysisKey("dead_code", "fp2"))
}
