// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

// ErrUpstream is wrapped by every failure of the live catalog.
var ErrUpstream = errors.New("catalog upstream error")

const (
	// maxCatalogBytes bounds the size of a catalog response body.
	maxCatalogBytes = 32 << 20

	// maxErrorBodySize limits how much of an error body is reported.
	maxErrorBodySize = 4 * 1024

	breakerName = "catalog"
)

// Source fetches the live catalog.
type Source interface {
	Fetch(ctx context.Context) ([]recommend.CatalogEvent, error)
}

// HTTPSource fetches the catalog from the backend's events endpoint.
//
// Calls go through a token bucket and a circuit breaker. The breaker opens
// after at least 10 requests with a 60% failure rate and lets 3 probe
// requests through once cfg.BreakerTimeout has elapsed.
type HTTPSource struct {
	url     string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]recommend.CatalogEvent]
	logger  zerolog.Logger
}

// NewHTTPSource creates a catalog source for cfg.URL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPSource(cfg *config.CatalogConfig, logger zerolog.Logger) *HTTPSource {
	logger = logger.With().Str("component", "catalog").Str("url", cfg.URL).Logger()

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	s := &HTTPSource{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  logger,
	}

	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	s.cb = gobreaker.NewCircuitBreaker[[]recommend.CatalogEvent](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return s
}

// Fetch returns the live catalog. Every failure, including an open
// breaker, wraps ErrUpstream.
func (s *HTTPSource) Fetch(ctx context.Context) ([]recommend.CatalogEvent, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrUpstream, err)
	}

	start := time.Now()
	events, err := s.cb.Execute(func() ([]recommend.CatalogEvent, error) {
		return s.fetch(ctx)
	})
	metrics.RecordCatalogFetch(time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(float64(s.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)
	return events, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]recommend.CatalogEvent, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // error on close after read is not actionable

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, readBodyForError(resp.Body))
	}

	var events []recommend.CatalogEvent
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&events); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %w", ErrUpstream, err)
	}
	return events, nil
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return string(body)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
