// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package config provides centralized configuration management for Marquee.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, ./config.yaml or /etc/marquee/config.yaml)
 3. Environment variables (explicit mapping in envTransformFunc)

# Configuration Structure

  - ServerConfig: HTTP listener and shutdown settings
  - DatabaseConfig: interaction store driver (duckdb or sqlite) and path
  - CatalogConfig: catalog backend URL, timeout, circuit breaker and the
    static fallback catalog
  - ModelStoreConfig: where trained cluster snapshots are persisted
  - RecommendConfig: clustering parameters, time windows and result limits
  - SecurityConfig: CORS and per-IP rate limiting
  - LoggingConfig: zerolog level and output format

# Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Catalog.URL)

The fallback catalog can only be replaced through the YAML file:

	catalog:
	  fallback_events:
	    - id: 1
	      name: "Concert in Almaty"
	      category: "concerts"
*/
package config
