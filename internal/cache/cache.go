// Package cache provides a TTL+LRU cache for expensive, re-derivable
// results: PageRank-weighted repo-map compositions (C10) and dead-code/
// test-gap scans (C11), both of which recompute over the whole symbol set
// on every call. Adapted from the teacher's internal/cache.MetricsCache
// (sync.Map plus a hand-rolled TTL/eviction sweep) onto
// hashicorp/golang-lru/v2's expirable.LRU, which gives the same TTL+LRU
// behavior as a library instead of a hand-rolled sweep goroutine.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultMaxEntries bounds one Cache's resident entry count.
	DefaultMaxEntries = 400
	// DefaultTTL matches the teacher's MetricsCache default window.
	DefaultTTL = 2 * time.Hour
)

// Cache holds re-derivable results of type V behind string keys, with TTL
// expiry and LRU eviction once MaxEntries is reached.
type Cache[V any] struct {
	lru *lru.LRU[string, V]

	hits   int64
	misses int64
}

// New constructs a Cache with the given entry cap and TTL. A zero
// maxEntries or ttl falls back to the package defaults.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{lru: lru.NewLRU[string, V](maxEntries, nil, ttl)}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	return v, ok
}

// Put stores value under key, evicting the least-recently-used entry if
// the cache is at capacity.
func (c *Cache[V]) Put(key string, value V) {
	c.lru.Add(key, value)
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.lru.Purge()
}

// Stats reports cumulative hit/miss counts and resident entry count.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Stats snapshots the cache's hit rate and current size.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: c.lru.Len(),
	}
}

// HitRate returns Hits/(Hits+Misses), or 0 with no requests yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// RepoMapKey builds a cache key for one C10 composition: the symbol set's
// content fingerprint, the query (empty for the unscored form), and the
// token budget, mirroring the teacher's generateContentKey's
// hash-plus-discriminator shape.
func RepoMapKey(symbolSetHash string, query string, maxTokens int) string {
	return symbolSetHash + ":" + query + ":" + strconv.Itoa(maxTokens)
}

// AnalysisKey builds a cache key for one C11 scan, discriminated by kind
// ("dead_code", "test_gaps", "impact:<symbolID>") and the symbol set's
// fingerprint so a graph rebuild invalidates every prior scan.
func AnalysisKey(kind string, symbolSetHash string) string {
	return kind + ":" + symbolSetHash
}

// FingerprintSymbolIDs hashes a sorted slice of symbol IDs (the caller
// sorts; this package does not re-sort to avoid paying that cost on every
// call when the caller already has a stable order) into a short content
// fingerprint, the same sha256-prefix-hex shape the teacher's
// generateContentKey uses for its content hash component.
func FingerprintSymbolIDs(sortedIDs []string) string {
	h := sha256.New()
	for _, id := range sortedIDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
