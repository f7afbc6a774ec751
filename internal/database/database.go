// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tomtom215/marquee/internal/config"
)

// Supported database/sql drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// memoryPath opens an in-memory database with either driver.
const memoryPath = ":memory:"

var (
	// ErrInvalidDriver is returned by New for an unknown driver name.
	ErrInvalidDriver = errors.New("invalid database driver")

	// ErrClosed is returned by Ping on a DB without a connection.
	ErrClosed = errors.New("database connection is nil")
)

// DB is the interaction store: clicks and views in two append-only tables.
// It is safe for concurrent use.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	logger zerolog.Logger
}

// New opens the database, configures the connection pool and creates the
// schema if needed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Path != "" && cfg.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "database").Str("driver", cfg.Driver).Logger(),
	}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), db.queryTimeout())
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.createTables(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info().Str("path", cfg.Path).Msg("interaction store ready")
	return db, nil
}

// dataSourceName builds the driver-specific connection string.
func dataSourceName(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverDuckDB:
		path := cfg.Path
		if path == memoryPath {
			path = ""
		}
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "512MB"
		}
		return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", path, threads, maxMemory), nil
	case DriverSQLite:
		if cfg.Path == "" || cfg.Path == memoryPath {
			return memoryPath + "?_pragma=busy_timeout(5000)", nil
		}
		return cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver)
	}
}

// configureConnectionPool sizes the pool for the driver. An in-memory
// SQLite database exists per connection, so it is pinned to one.
func (db *DB) configureConnectionPool() {
	if db.cfg.Driver == DriverSQLite && (db.cfg.Path == "" || db.cfg.Path == memoryPath) {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
		return
	}

	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// queryTimeout returns the per-query deadline.
func (db *DB) queryTimeout() time.Duration {
	if db.cfg.QueryTimeout > 0 {
		return db.cfg.QueryTimeout
	}
	return 10 * time.Second
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.cfg.Driver
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.conn == nil {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Checkpoint flushes the DuckDB write-ahead log into the database file.
// It is a no-op for SQLite.
func (db *DB) Checkpoint(ctx context.Context) error {
	if db.cfg.Driver != DriverDuckDB {
		return nil
	}
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		db.logger.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	return db.conn.Close()
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
