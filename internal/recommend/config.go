// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Seed drives k-means initialization and result shuffling.
	Seed int64 `json:"seed"`

	// MinUsers is the smallest number of distinct users worth clustering.
	MinUsers int `json:"min_users"`

	// MinClusters and MaxClusters bound k = users/2.
	MinClusters int `json:"min_clusters"`
	MaxClusters int `json:"max_clusters"`

	// MaxIterations caps Lloyd iterations per k-means run.
	MaxIterations int `json:"max_iterations"`

	// NInit is the number of k-means restarts; the lowest inertia wins.
	NInit int `json:"n_init"`

	// Tolerance is the relative centroid shift below which k-means stops.
	Tolerance float64 `json:"tolerance"`

	// TrainingWindow is the click lookback used to build the matrix.
	TrainingWindow time.Duration `json:"training_window"`

	// SeenWindow is the lookback defining events a user has already seen.
	SeenWindow time.Duration `json:"seen_window"`

	// TrendingWindow is the lookback for the trending tier and status stats.
	TrendingWindow time.Duration `json:"trending_window"`

	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
}

// LimitCeiling is the largest number of events one request may ask for.
const LimitCeiling = 20

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Seed:           42,
		MinUsers:       5,
		MinClusters:    2,
		MaxClusters:    5,
		MaxIterations:  300,
		NInit:          10,
		Tolerance:      1e-4,
		TrainingWindow: 30 * 24 * time.Hour,
		SeenWindow:     7 * 24 * time.Hour,
		TrendingWindow: 30 * 24 * time.Hour,
		DefaultLimit:   5,
		MaxLimit:       20,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MinClusters < 1 {
		return fmt.Errorf("min_clusters must be >= 1, got %d", c.MinClusters)
	}
	if c.MaxClusters < c.MinClusters {
		return fmt.Errorf("max_clusters (%d) must be >= min_clusters (%d)", c.MaxClusters, c.MinClusters)
	}
	if c.MinUsers < c.MinClusters {
		return fmt.Errorf("min_users (%d) must be >= min_clusters (%d)", c.MinUsers, c.MinClusters)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations)
	}
	if c.NInit < 1 {
		return fmt.Errorf("n_init must be >= 1, got %d", c.NInit)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %g", c.Tolerance)
	}
	if c.TrainingWindow <= 0 || c.SeenWindow <= 0 || c.TrendingWindow <= 0 {
		return fmt.Errorf("time windows must be positive")
	}
	if c.MaxLimit < 1 || c.MaxLimit > LimitCeiling {
		return fmt.Errorf("max_limit must be in [1, %d], got %d", LimitCeiling, c.MaxLimit)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default_limit must be in [1, %d], got %d", c.MaxLimit, c.DefaultLimit)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// clusterCount returns k = clamp(users/2, MinClusters, MaxClusters).
func (c *Config) clusterCount(users int) int {
	k := users / 2
	if k < c.MinClusters {
		k = c.MinClusters
	}
	if k > c.MaxClusters {
		k = c.MaxClusters
	}
	return k
}

// normalizeLimit maps a requested limit into [1, MaxLimit].
func (c *Config) normalizeLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	if limit > c.MaxLimit {
		return c.MaxLimit
	}
	return limit
}
