// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

var _ recommend.InteractionStore = (*DB)(nil)

// RecordClick appends one click. A nil userID records an anonymous click.
func (db *DB) RecordClick(ctx context.Context, userID *int64, eventID int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_clicks (user_id, event_id, clicked_at) VALUES (?, ?, ?)`,
		nullableUser(userID), eventID, toMicros(at))
	metrics.RecordDBQuery("INSERT", tableClicks, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// RecordView appends one view with its duration in seconds.
func (db *DB) RecordView(ctx context.Context, userID *int64, eventID int64, duration float64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_views (user_id, event_id, view_duration, viewed_at) VALUES (?, ?, ?, ?)`,
		nullableUser(userID), eventID, duration, toMicros(at))
	metrics.RecordDBQuery("INSERT", tableViews, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

// ClicksSince returns every click at or after since, oldest first.
func (db *DB) ClicksSince(ctx context.Context, since time.Time) ([]recommend.Interaction, error) {
	return db.queryClicks(ctx,
		`SELECT user_id, event_id, clicked_at FROM event_clicks
		WHERE clicked_at >= ?
		ORDER BY clicked_at`,
		toMicros(since))
}

// UserClicksSince returns one user's clicks at or after since, oldest first.
func (db *DB) UserClicksSince(ctx context.Context, userID int64, since time.Time) ([]recommend.Interaction, error) {
	return db.queryClicks(ctx,
		`SELECT user_id, event_id, clicked_at FROM event_clicks
		WHERE user_id = ? AND clicked_at >= ?
		ORDER BY clicked_at`,
		userID, toMicros(since))
}

func (db *DB) queryClicks(ctx context.Context, query string, args ...any) ([]recommend.Interaction, error) {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()

	start := time.Now()
	clicks, err := db.scanClicks(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", tableClicks, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query clicks: %w", err)
	}
	return clicks, nil
}

func (db *DB) scanClicks(ctx context.Context, query string, args ...any) ([]recommend.Interaction, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	var clicks []recommend.Interaction
	for rows.Next() {
		var (
			user    sql.NullInt64
			eventID int64
			at      int64
		)
		if err := rows.Scan(&user, &eventID, &at); err != nil {
			return nil, err
		}
		in := recommend.Interaction{
			Kind:      recommend.KindClick,
			EventID:   eventID,
			Timestamp: fromMicros(at),
		}
		if user.Valid {
			id := user.Int64
			in.UserID = &id
		}
		clicks = append(clicks, in)
	}
	return clicks, rows.Err()
}

// TopClickedSince ranks events by click count since the given time, ties
// broken by ascending event ID.
func (db *DB) TopClickedSince(ctx context.Context, since time.Time, limit int) ([]recommend.EventCount, error) {
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()

	start := time.Now()
	top, err := db.scanTop(ctx, since, limit)
	metrics.RecordDBQuery("SELECT", tableClicks, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query top clicked events: %w", err)
	}
	return top, nil
}

func (db *DB) scanTop(ctx context.Context, since time.Time, limit int) ([]recommend.EventCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT event_id, COUNT(*) AS clicks FROM event_clicks
		WHERE clicked_at >= ?
		GROUP BY event_id
		ORDER BY clicks DESC, event_id ASC
		LIMIT ?`,
		toMicros(since), limit)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	var top []recommend.EventCount
	for rows.Next() {
		var ec recommend.EventCount
		if err := rows.Scan(&ec.EventID, &ec.Clicks); err != nil {
			return nil, err
		}
		top = append(top, ec)
	}
	return top, rows.Err()
}

// ClickStatsSince counts clicks and distinct known users since the given time.
func (db *DB) ClickStatsSince(ctx context.Context, since time.Time) (recommend.ClickStats, error) {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()

	var stats recommend.ClickStats
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT user_id) FROM event_clicks WHERE clicked_at >= ?`,
		toMicros(since)).Scan(&stats.TotalClicks, &stats.UniqueUsers)
	metrics.RecordDBQuery("SELECT", tableClicks, time.Since(start), err)
	if err != nil {
		return recommend.ClickStats{}, fmt.Errorf("failed to query click stats: %w", err)
	}
	return stats, nil
}

func nullableUser(userID *int64) sql.NullInt64 {
	if userID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *userID, Valid: true}
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
