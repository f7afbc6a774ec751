// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Recommend returns up to req.Limit catalog events for the user. It never
// fails: missing models, missing history and catalog outages each fall
// through to the next tier.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) *Response {
	start := e.now()
	limit := e.config.normalizeLimit(req.Limit)

	logger := e.logger.With().Int("limit", limit).Logger()
	if req.UserID != nil {
		logger = logger.With().Int64("user_id", *req.UserID).Logger()
	}

	catalog, origin, recent := e.loadRequestData(ctx, req.UserID, logger)

	resp := &Response{Events: []CatalogEvent{}, Tiers: []string{}, CatalogOrigin: origin}
	if len(catalog) == 0 {
		logger.Debug().Msg("catalog empty, nothing to recommend")
		e.observer.RecommendationServed(resp, e.now().Sub(start))
		return resp
	}

	b := newResultBuilder(limit)
	if req.UserID != nil {
		for _, c := range recent {
			b.exclude(c.EventID)
		}

		if e.clusterTier(b, *req.UserID, catalog) {
			resp.Tiers = append(resp.Tiers, TierCluster)
		}
		if !b.full() && len(recent) > 0 {
			if e.recentClickTier(b, recent, catalog) {
				resp.Tiers = append(resp.Tiers, TierRecentClicks)
			}
		}
	}

	if !b.full() {
		resp.Tiers = append(resp.Tiers, e.trendingTier(ctx, b, limit, catalog, logger)...)
	}

	resp.Events = b.events
	logger.Debug().
		Strs("tiers", resp.Tiers).
		Int("returned", len(resp.Events)).
		Str("catalog", string(origin)).
		Msg("recommendation complete")

	e.observer.RecommendationServed(resp, e.now().Sub(start))
	return resp
}

// loadRequestData resolves the catalog and the user's recent clicks
// concurrently. A failed click lookup is treated as no history.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) loadRequestData(ctx context.Context, userID *int64, logger zerolog.Logger) ([]CatalogEvent, CatalogOrigin, []Interaction) {
	var (
		catalog []CatalogEvent
		origin  CatalogOrigin
		recent  []Interaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		catalog, origin = e.catalog.Resolve(gctx)
		return nil
	})
	if userID != nil {
		g.Go(func() error {
			clicks, err := e.interactions.UserClicksSince(gctx, *userID, e.now().Add(-e.config.SeenWindow))
			if err != nil {
				logger.Warn().Err(err).Msg("failed to load recent clicks, continuing without history")
				return nil
			}
			recent = clicks
			return nil
		})
	}
	_ = g.Wait()

	return catalog, origin, recent
}

// clusterTier fills from the categories preferred by the user's cluster.
func (e *Engine) clusterTier(b *resultBuilder, userID int64, catalog []CatalogEvent) bool {
	snap := e.snapshot.Load()
	if snap == nil {
		return false
	}
	cluster, ok := snap.Model.ClusterOf(userID)
	if !ok {
		return false
	}
	weights := snap.Preferences[cluster]
	if len(weights) == 0 {
		return false
	}
	return b.fillByCategory(RankCategories(weights), catalog) > 0
}

// recentClickTier fills from the categories of the user's recent clicks,
// then with a random selection of unseen events.
func (e *Engine) recentClickTier(b *resultBuilder, recent []Interaction, catalog []CatalogEvent) bool {
	categories := categoryIndex(catalog)
	counts := make(map[string]float64)
	for _, c := range recent {
		if cat, ok := categories[c.EventID]; ok && cat != "" {
			counts[cat]++
		}
	}

	added := b.fillByCategory(RankCategories(counts), catalog)
	if !b.full() {
		added += b.fill(e.shuffled(catalog))
	}
	return added > 0
}

// trendingTier fills with the most clicked events of the trending window,
// then with random events. It reports the tiers that contributed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) trendingTier(ctx context.Context, b *resultBuilder, limit int, catalog []CatalogEvent, logger zerolog.Logger) []string {
	var tiers []string

	top := limit / 2
	if top < 1 {
		top = 1
	}
	trending, err := e.interactions.TopClickedSince(ctx, e.now().Add(-e.config.TrendingWindow), top)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load trending events, using random selection")
		trending = nil
	}

	if len(trending) > 0 {
		byID := make(map[int64]CatalogEvent, len(catalog))
		for _, ev := range catalog {
			if _, dup := byID[ev.ID]; !dup {
				byID[ev.ID] = ev
			}
		}
		ranked := make([]CatalogEvent, 0, len(trending))
		for _, t := range trending {
			if ev, ok := byID[t.EventID]; ok {
				ranked = append(ranked, ev)
			}
		}
		if b.fill(ranked) > 0 {
			tiers = append(tiers, TierTrending)
		}
	}

	if !b.full() && b.fill(e.shuffled(catalog)) > 0 {
		tiers = append(tiers, TierRandom)
	}
	return tiers
}

// resultBuilder accumulates a duplicate-free result of bounded size.
type resultBuilder struct {
	limit    int
	events   []CatalogEvent
	picked   map[int64]struct{}
	excluded map[int64]struct{}
}

func newResultBuilder(limit int) *resultBuilder {
	return &resultBuilder{
		limit:    limit,
		events:   make([]CatalogEvent, 0, limit),
		picked:   make(map[int64]struct{}, limit),
		excluded: make(map[int64]struct{}),
	}
}

func (b *resultBuilder) full() bool {
	return len(b.events) >= b.limit
}

// exclude marks an event as never eligible.
func (b *resultBuilder) exclude(id int64) {
	b.excluded[id] = struct{}{}
}

// add appends ev unless it is full, excluded or already picked.
func (b *resultBuilder) add(ev CatalogEvent) bool {
	if b.full() {
		return false
	}
	if _, ok := b.excluded[ev.ID]; ok {
		return false
	}
	if _, ok := b.picked[ev.ID]; ok {
		return false
	}
	b.picked[ev.ID] = struct{}{}
	b.events = append(b.events, ev)
	return true
}

// fill adds events in order until full and returns how many were added.
func (b *resultBuilder) fill(events []CatalogEvent) int {
	added := 0
	for _, ev := range events {
		if b.full() {
			break
		}
		if b.add(ev) {
			added++
		}
	}
	return added
}

// fillByCategory walks categories in rank order, adding each category's
// events in catalog order.
func (b *resultBuilder) fillByCategory(ranked []string, catalog []CatalogEvent) int {
	added := 0
	for _, category := range ranked {
		if b.full() {
			break
		}
		for _, ev := range catalog {
			if ev.Category != category {
				continue
			}
			if b.full() {
				break
			}
			if b.add(ev) {
				added++
			}
		}
	}
	return added
}
