// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"fmt"
)

// Table names.
const (
	tableClicks = "event_clicks"
	tableViews  = "event_views"
)

// Timestamps are stored as UTC unix microseconds so both drivers compare
// and order them identically.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS event_clicks (
		user_id BIGINT,
		event_id BIGINT NOT NULL,
		clicked_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_clicks_clicked_at ON event_clicks (clicked_at)`,
	`CREATE INDEX IF NOT EXISTS idx_event_clicks_user ON event_clicks (user_id, clicked_at)`,
	`CREATE TABLE IF NOT EXISTS event_views (
		user_id BIGINT,
		event_id BIGINT NOT NULL,
		view_duration DOUBLE NOT NULL,
		viewed_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_views_viewed_at ON event_views (viewed_at)`,
}

// createTables creates the interaction tables and indexes if they do not exist.
func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
