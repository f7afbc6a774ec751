// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "HTTP_PORT"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "DATABASE_DRIVER"},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "DATABASE_PATH"},
		{name: "catalog url bad scheme", mutate: func(c *Config) { c.Catalog.URL = "ftp://backend/events" }, wantErr: "CATALOG_URL"},
		{name: "catalog url with path ok", mutate: func(c *Config) { c.Catalog.URL = "https://api.example.com/v1/events/" }},
		{name: "catalog url empty disables live fetch", mutate: func(c *Config) { c.Catalog.URL = "" }},
		{name: "catalog timeout zero", mutate: func(c *Config) { c.Catalog.Timeout = 0 }, wantErr: "CATALOG_TIMEOUT"},
		{name: "rate burst missing", mutate: func(c *Config) { c.Catalog.RateBurst = 0 }, wantErr: "CATALOG_RATE_BURST"},
		{name: "rate limit disabled ignores burst", mutate: func(c *Config) { c.Catalog.RateLimit = 0; c.Catalog.RateBurst = 0 }},
		{name: "catalog cache ttl negative", mutate: func(c *Config) { c.Catalog.CacheTTL = -time.Second }, wantErr: "CATALOG_CACHE_TTL"},
		{name: "catalog cache ttl set", mutate: func(c *Config) { c.Catalog.CacheTTL = 15 * time.Second }},
		{
			name: "duplicate fallback id",
			mutate: func(c *Config) {
				c.Catalog.FallbackEvents = append(c.Catalog.FallbackEvents, FallbackEvent{ID: 1, Category: "x"})
			},
			wantErr: "duplicate id",
		},
		{name: "empty fallback allowed", mutate: func(c *Config) { c.Catalog.FallbackEvents = nil }},
		{name: "unknown backend", mutate: func(c *Config) { c.ModelStore.Backend = "s3" }, wantErr: "MODEL_STORE_BACKEND"},
		{name: "keep versions zero", mutate: func(c *Config) { c.ModelStore.KeepVersions = 0 }, wantErr: "KEEP_VERSIONS"},
		{name: "max clusters below min", mutate: func(c *Config) { c.Recommend.MaxClusters = 1 }, wantErr: "MAX_CLUSTERS"},
		{name: "min users below clusters", mutate: func(c *Config) { c.Recommend.MinUsers = 1 }, wantErr: "MIN_USERS"},
		{name: "negative interval", mutate: func(c *Config) { c.Recommend.TrainInterval = -time.Second }, wantErr: "TRAIN_INTERVAL"},
		{name: "train timeout zero", mutate: func(c *Config) { c.Recommend.TrainTimeout = 0 }, wantErr: "RECOMMEND_TRAIN_TIMEOUT"},
		{name: "max limit above 20", mutate: func(c *Config) { c.Recommend.MaxLimit = 50 }, wantErr: "RECOMMEND_MAX_LIMIT"},
		{name: "max limit at 20", mutate: func(c *Config) { c.Recommend.MaxLimit = 20 }},
		{name: "max limit zero", mutate: func(c *Config) { c.Recommend.MaxLimit = 0 }, wantErr: "RECOMMEND_MAX_LIMIT"},
		{name: "zero window", mutate: func(c *Config) { c.Recommend.SeenWindow = 0 }, wantErr: "windows"},
		{name: "default limit above max", mutate: func(c *Config) { c.Recommend.DefaultLimit = 21 }, wantErr: "DEFAULT_LIMIT"},
		{name: "rate limit reqs zero", mutate: func(c *Config) { c.Security.RateLimitReqs = 0 }, wantErr: "RATE_LIMIT_REQUESTS"},
		{name: "rate limit disabled", mutate: func(c *Config) { c.Security.RateLimitDisabled = true; c.Security.RateLimitReqs = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "LOG_LEVEL"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8001}
	if got := s.Addr(); got != "127.0.0.1:8001" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8001", got)
	}
}

func TestDefaultFallbackEvents(t *testing.T) {
	t.Parallel()

	events := DefaultFallbackEvents()
	categories := map[string]bool{}
	for _, ev := range events {
		categories[ev.Category] = true
		if ev.Name == "" || ev.Image == "" {
			t.Errorf("fallback event %d missing display fields", ev.ID)
		}
	}
	for _, c := range []string{"concerts", "movies", "sport", "entertainment", "other"} {
		if !categories[c] {
			t.Errorf("fallback catalog missing category %q", c)
		}
	}

	// Callers may mutate the returned slice freely
	events[0].Name = "changed"
	if DefaultFallbackEvents()[0].Name == "changed" {
		t.Error("DefaultFallbackEvents should return a fresh slice")
	}
}
