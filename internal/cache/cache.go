// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"sync"
	"time"
)

// entry is a cached value with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with a single TTL for all keys.
// Expired entries are removed lazily on Get.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// New creates a cache whose entries live for ttl.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		c.record(func(s *Stats) { s.Misses++ })
		return zero, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Another writer may have refreshed the key meanwhile.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.record(func(s *Stats) { s.Misses++; s.Evictions++ })
		return zero, false
	}

	c.record(func(s *Stats) { s.Hits++ })
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// GetStats returns a snapshot of the counters.
func (c *Cache[K, V]) GetStats() Stats {
	c.mu.RLock()
	keys := len(c.entries)
	c.mu.RUnlock()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	s := c.stats
	s.Keys = keys
	return s
}

func (c *Cache[K, V]) record(fn func(*Stats)) {
	c.statsMu.Lock()
	fn(&c.stats)
	c.statsMu.Unlock()
}
