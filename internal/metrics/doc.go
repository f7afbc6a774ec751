// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
served by promhttp on /metrics.

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Requests in flight (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Database Metrics:
  - db_query_duration_seconds: Interaction store query time (histogram)
    Labels: operation, table
  - db_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

Interaction and Catalog Metrics:
  - interactions_recorded_total: Clicks and views (counter)
    Labels: kind, identity
  - catalog_resolutions_total: Catalog resolutions (counter)
    Labels: origin (live, fallback)
  - catalog_fetch_duration_seconds: Live fetch latency (histogram)
  - catalog_events: Size of the last resolved catalog (gauge)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Labels name, result (counter)
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total (counter)

Recommendation Metrics:
  - recommendations_served_total: Responses by leading tier (counter)
  - recommendation_tier_usage_total: Tier contributions (counter)
  - recommendation_duration_seconds (histogram)
  - recommendation_result_size (histogram)

Training Metrics:
  - training_runs_total: Labels outcome (counter)
  - training_duration_seconds (histogram)
  - training_last_success_timestamp (gauge)
  - model_users, model_clusters, model_version (gauges)

# Usage

RecommendObserver implements recommend.Observer and is passed to the engine
at construction:

	engine, err := recommend.NewEngine(cfg, recommend.Dependencies{
	    Observer: metrics.RecommendObserver{},
	    ...
	}, logger)
*/
package metrics
