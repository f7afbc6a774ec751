// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/recommend"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultTrainTimeout   = 5 * time.Minute
	trainWriteGrace       = 10 * time.Second
	healthPingTimeout     = 2 * time.Second
	maxRequestBodyBytes   = 1 << 20
)

// InteractionRecorder appends clicks and views. *database.DB implements it.
type InteractionRecorder interface {
	RecordClick(ctx context.Context, userID *int64, eventID int64, at time.Time) error
	RecordView(ctx context.Context, userID *int64, eventID int64, duration float64, at time.Time) error
	Ping(ctx context.Context) error
}

// Recommender is the engine surface used by the handlers.
// *recommend.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) *recommend.Response
	Train(ctx context.Context) (*recommend.TrainResult, error)
	Status(ctx context.Context) *recommend.MLStatus
	Config() *recommend.Config
}

// HandlerOptions tunes request handling. Zero values select defaults.
type HandlerOptions struct {
	// RequestTimeout bounds a recommendation or status request.
	RequestTimeout time.Duration

	// TrainTimeout bounds a training run started over HTTP. The run is
	// detached from the client connection, and the response write deadline
	// is extended past it.
	TrainTimeout time.Duration

	// Now is optional and defaults to time.Now.
	Now func() time.Time
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_interactions.go: POST /click, POST /view
//   - handlers_recommend.go: GET /recommendations, POST /train, GET /ml/status
//   - handlers_health.go: GET /health
//   - handlers_helpers.go: response and request helpers
type Handler struct {
	engine         Recommender
	store          InteractionRecorder
	limits         limitBounds
	requestTimeout time.Duration
	trainTimeout   time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// limitBounds are the recommendation limit defaults of the engine.
type limitBounds struct {
	def, max int
}

// NewHandler creates a new API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, store InteractionRecorder, opts HandlerOptions, logger zerolog.Logger) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.TrainTimeout <= 0 {
		opts.TrainTimeout = defaultTrainTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cfg := engine.Config()
	return &Handler{
		engine:         engine,
		store:          store,
		limits:         limitBounds{def: cfg.DefaultLimit, max: cfg.MaxLimit},
		requestTimeout: opts.RequestTimeout,
		trainTimeout:   opts.TrainTimeout,
		now:            opts.Now,
		logger:         logger.With().Str("component", "api").Logger(),
	}
}
