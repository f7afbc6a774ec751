// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

// Resolver serves the live catalog when it is reachable and non-empty, and
// the static fallback catalog otherwise. Concurrent resolutions share one
// upstream fetch.
type Resolver struct {
	source   Source
	fallback []recommend.CatalogEvent
	timeout  time.Duration
	logger   zerolog.Logger
	group    singleflight.Group
	cache    *cache.Cache[string, []recommend.CatalogEvent]
}

const liveCatalogKey = "live"

var _ recommend.CatalogResolver = (*Resolver)(nil)

// NewResolver creates a resolver. A timeout of zero leaves the fetch bounded
// only by the caller's context and the source's own timeout. A nil source
// serves the fallback catalog only.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResolver(source Source, fallback []recommend.CatalogEvent, timeout time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{
		source:   source,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// EnableCache keeps each successfully fetched live catalog for ttl. Fallback
// results are never cached, so a recovered upstream is picked up on the next
// resolution. Call before the resolver is shared.
func (r *Resolver) EnableCache(ttl time.Duration) *Resolver {
	if ttl > 0 {
		c := cache.New[string, []recommend.CatalogEvent](ttl)
		r.cache = c
		metrics.RegisterCache("catalog", func() metrics.CacheStats {
			s := c.GetStats()
			return metrics.CacheStats{Hits: s.Hits, Misses: s.Misses, Evictions: s.Evictions, Keys: s.Keys}
		})
	}
	return r
}

// Resolve returns the catalog and where it came from. It never fails.
func (r *Resolver) Resolve(ctx context.Context) ([]recommend.CatalogEvent, recommend.CatalogOrigin) {
	if r.source == nil {
		return r.useFallback()
	}
	if r.cache != nil {
		if events, ok := r.cache.Get(liveCatalogKey); ok {
			metrics.RecordCatalogResolution(string(recommend.CatalogLive), len(events))
			return events, recommend.CatalogLive
		}
	}

	ch := r.group.DoChan("catalog", func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, r.timeout)
			defer cancel()
		}
		return r.source.Fetch(fetchCtx)
	})

	var (
		events []recommend.CatalogEvent
		err    error
	)
	select {
	case res := <-ch:
		err = res.Err
		if err == nil {
			events, _ = res.Val.([]recommend.CatalogEvent) //nolint:errcheck // type is fixed by the closure above
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		r.logger.Warn().Err(err).Int("fallback_events", len(r.fallback)).Msg("live catalog unavailable, using fallback catalog")
		return r.useFallback()
	}
	if len(events) == 0 {
		r.logger.Warn().Int("fallback_events", len(r.fallback)).Msg("live catalog empty, using fallback catalog")
		return r.useFallback()
	}

	if r.cache != nil {
		r.cache.Set(liveCatalogKey, events)
	}
	metrics.RecordCatalogResolution(string(recommend.CatalogLive), len(events))
	return events, recommend.CatalogLive
}

func (r *Resolver) useFallback() ([]recommend.CatalogEvent, recommend.CatalogOrigin) {
	metrics.RecordCatalogResolution(string(recommend.CatalogFallback), len(r.fallback))
	return r.fallback, recommend.CatalogFallback
}

// FallbackEvents converts configured fallback events into catalog events.
func FallbackEvents(cfg []config.FallbackEvent) ([]recommend.CatalogEvent, error) {
	events := make([]recommend.CatalogEvent, 0, len(cfg))
	for i := range cfg {
		fe := &cfg[i]
		ev, err := recommend.NewCatalogEvent(fe.ID, fe.Category, map[string]any{
			"name":        fe.Name,
			"description": fe.Description,
			"image":       fe.Image,
			"date":        fe.Date,
			"location":    fe.Location,
			"price":       fe.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("fallback event %d: %w", fe.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
