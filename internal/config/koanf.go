// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8001,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/marquee.duckdb",
			MaxMemory:    "512MB",
			Threads:      0, // 0 = use runtime.NumCPU()
			QueryTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			URL:            "http://backend:8000/events/",
			Timeout:        5 * time.Second,
			RateLimit:      20,
			RateBurst:      40,
			BreakerTimeout: 30 * time.Second,
			CacheTTL:       0,
			FallbackEvents: DefaultFallbackEvents(),
		},
		ModelStore: ModelStoreConfig{
			Backend:      "file",
			Path:         "/data/models",
			KeepVersions: 3,
		},
		Recommend: RecommendConfig{
			TrainOnStartup: true,
			TrainInterval:  0, // Retrain only on startup and on request
			TrainTimeout:   5 * time.Minute,
			Seed:           42,
			MinUsers:       5,
			MinClusters:    2,
			MaxClusters:    5,
			MaxIterations:  300,
			NInit:          10,
			TrainingWindow: 30 * 24 * time.Hour,
			SeenWindow:     7 * 24 * time.Hour,
			TrendingWindow: 30 * 24 * time.Hour,
			DefaultLimit:   5,
			MaxLimit:       20,
			RequestTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// DefaultFallbackEvents returns the static catalog served when the live
// catalog backend cannot be reached.
func DefaultFallbackEvents() []FallbackEvent {
	return []FallbackEvent{
		{ID: 1, Name: "Concert in Almaty", Date: "17.03.2025", Location: "Republic Palace", Price: "30", Category: "concerts", Image: "/images/event1.jpg"},
		{ID: 2, Name: "Movie Night", Date: "18.03.2025", Location: "Esentai Mall", Price: "Free", Category: "movies", Image: "/images/event2.jpg"},
		{ID: 3, Name: "Football Match", Date: "19.03.2025", Location: "Central Stadium", Price: "15", Category: "sport", Image: "/images/event3.jpg"},
		{ID: 4, Name: "Comedy Show", Date: "20.03.2025", Location: "Theatre", Price: "25", Category: "entertainment", Image: "/images/event4.jpeg"},
		{ID: 5, Name: "Art Exhibition", Date: "22.03.2025", Location: "Kasteyev Museum", Price: "10", Category: "other", Image: "/images/event5.jpeg"},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
//   - Backward compatibility with existing environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// CATALOG_URL -> catalog.url
	// RECOMMEND_TRAIN_INTERVAL -> recommend.train_interval
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Only explicitly mapped variables are honoured.
//
// Examples:
//   - CATALOG_URL -> catalog.url
//   - DATABASE_DRIVER -> database.driver
//   - MODEL_STORE_BACKEND -> model_store.backend
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":             "server.port",
		"http_host":             "server.host",
		"http_timeout":          "server.timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",
		"environment":           "server.environment",

		// Database mappings
		"database_driver":        "database.driver",
		"database_path":          "database.path",
		"database_query_timeout": "database.query_timeout",
		"duckdb_path":            "database.path",
		"duckdb_max_memory":      "database.max_memory",
		"duckdb_threads":         "database.threads",

		// Catalog mappings
		"catalog_url":             "catalog.url",
		"catalog_timeout":         "catalog.timeout",
		"catalog_rate_limit":      "catalog.rate_limit",
		"catalog_rate_burst":      "catalog.rate_burst",
		"catalog_breaker_timeout": "catalog.breaker_timeout",
		"catalog_cache_ttl":       "catalog.cache_ttl",

		// Model store mappings
		"model_store_backend":       "model_store.backend",
		"model_store_path":          "model_store.path",
		"model_store_keep_versions": "model_store.keep_versions",

		// Recommendation engine mappings
		"recommend_train_on_startup": "recommend.train_on_startup",
		"recommend_train_interval":   "recommend.train_interval",
		"recommend_train_timeout":    "recommend.train_timeout",
		"recommend_seed":             "recommend.seed",
		"recommend_min_users":        "recommend.min_users",
		"recommend_min_clusters":     "recommend.min_clusters",
		"recommend_max_clusters":     "recommend.max_clusters",
		"recommend_max_iterations":   "recommend.max_iterations",
		"recommend_n_init":           "recommend.n_init",
		"recommend_training_window":  "recommend.training_window",
		"recommend_seen_window":      "recommend.seen_window",
		"recommend_trending_window":  "recommend.trending_window",
		"recommend_default_limit":    "recommend.default_limit",
		"recommend_max_limit":        "recommend.max_limit",
		"recommend_request_timeout":  "recommend.request_timeout",

		// Security mappings
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
