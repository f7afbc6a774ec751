// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/marquee/internal/recommend"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validDatabaseDrivers = map[string]bool{
	"duckdb": true,
	"sqlite": true,
}

var validModelStoreBackends = map[string]bool{
	"file":   true,
	"badger": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateCatalog(); err != nil {
		return err
	}

	if err := c.validateModelStore(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if !validDatabaseDrivers[c.Database.Driver] {
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, sqlite")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DATABASE_QUERY_TIMEOUT must be positive")
	}
	return nil
}

// validateCatalog validates the catalog backend settings and the fallback catalog.
func (c *Config) validateCatalog() error {
	if c.Catalog.URL != "" {
		if err := validateHTTPURL(c.Catalog.URL, "CATALOG_URL"); err != nil {
			return fmt.Errorf("CATALOG_URL is invalid: %w", err)
		}
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}
	if c.Catalog.RateLimit < 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT must be >= 0")
	}
	if c.Catalog.RateLimit > 0 && c.Catalog.RateBurst < 1 {
		return fmt.Errorf("CATALOG_RATE_BURST must be >= 1 when rate limiting is enabled")
	}
	if c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL must be >= 0")
	}

	seen := make(map[int64]bool, len(c.Catalog.FallbackEvents))
	for i, ev := range c.Catalog.FallbackEvents {
		if seen[ev.ID] {
			return fmt.Errorf("catalog.fallback_events[%d]: duplicate id %d", i, ev.ID)
		}
		seen[ev.ID] = true
	}
	return nil
}

func (c *Config) validateModelStore() error {
	if !validModelStoreBackends[c.ModelStore.Backend] {
		return fmt.Errorf("MODEL_STORE_BACKEND must be one of: file, badger")
	}
	if strings.TrimSpace(c.ModelStore.Path) == "" {
		return fmt.Errorf("MODEL_STORE_PATH is required")
	}
	if c.ModelStore.KeepVersions < 1 {
		return fmt.Errorf("MODEL_STORE_KEEP_VERSIONS must be >= 1")
	}
	return nil
}

// validateRecommend validates clustering and serving bounds.
func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.TrainInterval < 0 {
		return fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be >= 0")
	}
	if r.TrainTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_TRAIN_TIMEOUT must be positive")
	}
	if r.MinClusters < 1 {
		return fmt.Errorf("RECOMMEND_MIN_CLUSTERS must be >= 1")
	}
	if r.MaxClusters < r.MinClusters {
		return fmt.Errorf("RECOMMEND_MAX_CLUSTERS (%d) must be >= RECOMMEND_MIN_CLUSTERS (%d)", r.MaxClusters, r.MinClusters)
	}
	if r.MinUsers < r.MinClusters {
		return fmt.Errorf("RECOMMEND_MIN_USERS (%d) must be >= RECOMMEND_MIN_CLUSTERS (%d)", r.MinUsers, r.MinClusters)
	}
	if r.MaxIterations < 1 {
		return fmt.Errorf("RECOMMEND_MAX_ITERATIONS must be >= 1")
	}
	if r.NInit < 1 {
		return fmt.Errorf("RECOMMEND_N_INIT must be >= 1")
	}
	if r.TrainingWindow <= 0 || r.SeenWindow <= 0 || r.TrendingWindow <= 0 {
		return fmt.Errorf("recommendation windows must be positive")
	}
	if r.MaxLimit < 1 || r.MaxLimit > recommend.LimitCeiling {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT must be between 1 and %d", recommend.LimitCeiling)
	}
	if r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be between 1 and %d", r.MaxLimit)
	}
	if r.RequestTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level configuration
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
