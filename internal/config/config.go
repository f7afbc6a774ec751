// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Fields are tagged for Koanf so they can be layered from defaults,
// an optional YAML file and environment variables.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	ModelStore ModelStoreConfig `koanf:"model_store"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// DatabaseConfig holds interaction store configuration.
// Driver selects the database/sql driver: "duckdb" for file-backed
// production use or "sqlite" for the pure-Go driver.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"`
	Path         string        `koanf:"path"`
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// CatalogConfig configures access to the event catalog backend.
type CatalogConfig struct {
	// URL of the catalog endpoint returning a JSON array of events.
	URL string `koanf:"url"`

	// Timeout bounds a single catalog fetch.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the sustained number of upstream fetches per second.
	// Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// BreakerTimeout is how long the circuit stays open before probing again.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`

	// CacheTTL keeps a successfully fetched live catalog for this long.
	// Zero fetches on every resolution.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// FallbackEvents is served whenever the live catalog is unavailable.
	FallbackEvents []FallbackEvent `koanf:"fallback_events"`
}

// FallbackEvent is one entry of the static fallback catalog.
type FallbackEvent struct {
	ID          int64  `koanf:"id"`
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	Image       string `koanf:"image"`
	Date        string `koanf:"date"`
	Location    string `koanf:"location"`
	Price       string `koanf:"price"`
	Category    string `koanf:"category"`
}

// ModelStoreConfig selects where trained cluster snapshots are persisted.
type ModelStoreConfig struct {
	// Backend is "file" (versioned directories with an atomic pointer)
	// or "badger" (single-transaction key-value writes).
	Backend      string `koanf:"backend"`
	Path         string `koanf:"path"`
	KeepVersions int    `koanf:"keep_versions"`
}

// RecommendConfig holds recommendation engine configuration
type RecommendConfig struct {
	TrainOnStartup bool `koanf:"train_on_startup"`

	// TrainInterval enables periodic retraining. Zero disables it.
	TrainInterval time.Duration `koanf:"train_interval"`

	// TrainTimeout bounds one training run, scheduled or requested over
	// HTTP. A POST /train response is held open for at least this long.
	TrainTimeout time.Duration `koanf:"train_timeout"`

	Seed          int64 `koanf:"seed"`
	MinUsers      int   `koanf:"min_users"`
	MinClusters   int   `koanf:"min_clusters"`
	MaxClusters   int   `koanf:"max_clusters"`
	MaxIterations int   `koanf:"max_iterations"`
	NInit         int   `koanf:"n_init"`

	TrainingWindow time.Duration `koanf:"training_window"`
	SeenWindow     time.Duration `koanf:"seen_window"`
	TrendingWindow time.Duration `koanf:"trending_window"`

	DefaultLimit   int           `koanf:"default_limit"`
	MaxLimit       int           `koanf:"max_limit"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// SecurityConfig holds HTTP hardening settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration using the following precedence (highest to lowest):
//  1. Environment variables
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Built-in defaults
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
