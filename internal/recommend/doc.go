// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package recommend implements the event recommendation engine.
//
// # Architecture
//
// Training turns recent clicks into a dense user-by-event count matrix,
// standardizes it, partitions users with seeded k-means and derives a
// per-cluster category preference table. The trained ClusterModel and its
// PreferenceTable form one Snapshot that is persisted through a ModelStore
// and then published to readers with a single atomic pointer swap.
//
// Serving resolves the catalog and walks a cumulative fallback policy:
//
//  1. Catalog resolution (live catalog, else the static fallback catalog)
//  2. Cluster tier: categories preferred by the user's cluster
//  3. Recent-click tier: categories the user clicked in the last week
//  4. Trending tier: most clicked events of the last month, then random
//
// Each tier only fills what the previous ones left open. Missing models,
// missing click history and catalog outages are ordinary conditions, so
// Recommend never returns an error.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, recommend.Dependencies{
//	    Interactions: db,
//	    Catalog:      resolver,
//	    Models:       store,
//	}, logger)
//	engine.Restore(ctx)
//
//	result, err := engine.Train(ctx)
//	resp := engine.Recommend(ctx, recommend.Request{UserID: &uid, Limit: 5})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Training is serialized by a mutex
// and concurrent callers share one run. Readers load the current Snapshot
// without locking and never wait for training.
package recommend
