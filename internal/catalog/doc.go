// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package catalog resolves the event catalog that recommendations are drawn
// from.
//
// HTTPSource fetches the live catalog from the events backend behind a rate
// limiter and a circuit breaker. Resolver wraps any Source and falls back to
// a static catalog when the live one fails, times out or is empty, so
// callers always receive a usable catalog together with its origin.
//
// EnableCache keeps a successful live fetch for a fixed TTL. Fallback
// results are not cached.
package catalog
