// Package cache holds per-session values keyed by roteiro, week or group.
// Entries live until they are invalidated; there is no TTL and no eviction.
package cache

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Cache is a concurrent-safe keyed store. Each entry remembers the
// fingerprint of the input it was computed from so a changed input set reads
// as a miss.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	hits    atomic.Int64
	misses  atomic.Int64
}

type entry[V any] struct {
	value       V
	fingerprint string
}

// Stats contains cache counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]entry[V])}
}

// Key builds a cache key from its parts. Parts are trimmed and lowercased so
// "Sao Paulo " and "sao paulo" share an entry; empty parts are kept as "-".
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			p = "-"
		}
		norm[i] = p
	}
	return strings.Join(norm, "/")
}

// Get returns the value stored under key regardless of its fingerprint.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// GetFresh returns the value only when it was stored with the same
// fingerprint. A stale entry is dropped.
func (c *Cache[V]) GetFresh(key, fingerprint string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if e.fingerprint != fingerprint {
		delete(c.entries, key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Put stores value under key with an empty fingerprint.
func (c *Cache[V]) Put(key string, value V) {
	c.PutFresh(key, "", value)
}

// PutFresh stores value under key tagged with the input fingerprint.
func (c *Cache[V]) PutFresh(key, fingerprint string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, fingerprint: fingerprint}
	c.mu.Unlock()
}

// Invalidate removes every entry whose key equals prefix or starts with
// prefix followed by "/". It returns the number removed.
func (c *Cache[V]) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{Entries: entries, Hits: hits, Misses: misses, HitRate: hitRate}
}
