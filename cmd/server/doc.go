// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main is the entry point for the Marquee recommendation server.
//
// Marquee records clicks and views on an events platform, clusters known
// users by their click history and serves personalized event lists with
// popularity and random fallbacks.
//
// # Startup
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Interaction store: DuckDB or SQLite via database/sql
//  3. Catalog: live HTTP source with circuit breaker, static fallback
//  4. Model store: versioned files or Badger
//  5. Engine: restores the last committed model if one exists
//  6. Supervisor tree: training service and HTTP server
//
// # Configuration
//
// Frequently used environment variables:
//
//	HTTP_PORT=8001
//	DATABASE_DRIVER=duckdb          # or sqlite
//	DATABASE_PATH=/data/marquee.duckdb
//	CATALOG_URL=http://backend:8000/events/
//	CATALOG_CACHE_TTL=30s           # 0 fetches on every request
//	MODEL_STORE_BACKEND=file        # or badger
//	MODEL_STORE_PATH=/data/models
//	RECOMMEND_TRAIN_ON_STARTUP=true
//	RECOMMEND_TRAIN_INTERVAL=6h     # 0 disables scheduled training
//	RECOMMEND_TRAIN_TIMEOUT=5m      # bounds each run, POST /train included
//	LOG_LEVEL=info
//	LOG_FORMAT=json
//
// CONFIG_PATH points to a YAML file with the same keys in nested form.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// for server.shutdown_timeout, an in-flight training run is abandoned
// before it saves, and the database is checkpointed and closed.
package main
