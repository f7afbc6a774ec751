// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheStats is a point-in-time view of an in-memory cache.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// cacheCollector reads registered caches at scrape time.
type cacheCollector struct {
	mu      sync.RWMutex
	sources map[string]func() CacheStats

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	keys      *prometheus.Desc
}

var caches = newCacheCollector()

func init() {
	prometheus.MustRegister(caches)
}

func newCacheCollector() *cacheCollector {
	label := []string{"cache"}
	return &cacheCollector{
		sources:   make(map[string]func() CacheStats),
		hits:      prometheus.NewDesc("cache_hits_total", "Total cache hits", label, nil),
		misses:    prometheus.NewDesc("cache_misses_total", "Total cache misses, expired entries included", label, nil),
		evictions: prometheus.NewDesc("cache_evictions_total", "Total entries removed on expiry", label, nil),
		keys:      prometheus.NewDesc("cache_keys", "Entries currently held", label, nil),
	}
}

// RegisterCache exposes the stats of the named cache. Registering a name
// again replaces its source.
func RegisterCache(name string, stats func() CacheStats) {
	caches.mu.Lock()
	caches.sources[name] = stats
	caches.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.keys
}

// Collect implements prometheus.Collector.
func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sources := make([]func() CacheStats, len(names))
	sort.Strings(names)
	for i, name := range names {
		sources[i] = c.sources[name]
	}
	c.mu.RUnlock()

	for i, name := range names {
		s := sources[i]()
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), name)
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys), name)
	}
}
