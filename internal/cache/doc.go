// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package cache provides a thread-safe in-memory cache with TTL expiry.

The catalog resolver uses it to serve the live event catalog for a short
period without asking the upstream on every recommendation request.

# Usage

	c := cache.New[string, []recommend.CatalogEvent](30 * time.Second)
	c.Set("catalog", events)
	if events, ok := c.Get("catalog"); ok {
	    // fresh copy
	}

Expired entries are dropped on Get. GetStats reports hits, misses and
evictions; the catalog resolver exports them through the metrics package.
*/
package cache
