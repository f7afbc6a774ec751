// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the recommendation service:
// - Interaction store query performance (DuckDB or SQLite)
// - API endpoint latency and throughput
// - Catalog fetches and the catalog circuit breaker
// - Recommendation tiers and training runs

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of interaction store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of interaction store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Interaction Metrics
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total number of recorded interactions",
		},
		[]string{"kind", "identity"}, // kind: click, view; identity: user, anonymous
	)

	// Catalog Metrics
	CatalogResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_resolutions_total",
			Help: "Total number of catalog resolutions by origin",
		},
		[]string{"origin"}, // live, fallback
	)

	CatalogFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Duration of live catalog fetches in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	CatalogEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_events",
			Help: "Number of events in the last resolved catalog",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Recommendation Metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendation responses by leading tier",
		},
		[]string{"tier"}, // cluster, recent_clicks, trending, random, none
	)

	RecommendationTierUsage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_tier_usage_total",
			Help: "Total number of responses each tier contributed to",
		},
		[]string{"tier"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time to build a recommendation response in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
	)

	RecommendationResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_result_size",
			Help:    "Number of events returned per recommendation response",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 15, 20},
		},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"outcome"}, // success, skipped, failed
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_last_success_timestamp",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_users",
			Help: "Number of users in the published cluster model",
		},
	)

	ModelClusters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_clusters",
			Help: "Number of clusters in the published cluster model",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_version",
			Help: "Version of the published cluster snapshot",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordInteraction counts one recorded click or view.
func RecordInteraction(kind string, anonymous bool) {
	identity := "user"
	if anonymous {
		identity = "anonymous"
	}
	InteractionsRecorded.WithLabelValues(kind, identity).Inc()
}

// RecordCatalogResolution records which catalog served a caller.
func RecordCatalogResolution(origin string, events int) {
	CatalogResolutions.WithLabelValues(origin).Inc()
	CatalogEvents.Set(float64(events))
}

// RecordCatalogFetch records the duration of a live catalog fetch.
func RecordCatalogFetch(duration time.Duration) {
	CatalogFetchDuration.Observe(duration.Seconds())
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
