// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package database provides the interaction store for the Marquee
// recommendation service.
//
// # Overview
//
// Clicks and views are appended to two tables, event_clicks and
// event_views. Rows are never updated or deleted. The store implements
// recommend.InteractionStore for the engine and exposes RecordClick and
// RecordView for the HTTP layer.
//
// # Drivers
//
// Two database/sql drivers are supported, selected by config.DatabaseConfig.Driver:
//   - duckdb: github.com/duckdb/duckdb-go/v2, the default for file-backed deployments
//   - sqlite: modernc.org/sqlite, a pure-Go driver opened in WAL mode
//
// The path ":memory:" opens an in-memory database with either driver.
//
// # Schema
//
// Timestamps are BIGINT unix microseconds in UTC. user_id is NULL for
// anonymous visitors.
//
//	event_clicks(user_id BIGINT NULL, event_id BIGINT, clicked_at BIGINT)
//	event_views(user_id BIGINT NULL, event_id BIGINT, view_duration DOUBLE, viewed_at BIGINT)
//
// # Observability
//
// Every query reports its latency and errors through
// metrics.RecordDBQuery, labelled by operation and table.
package database
