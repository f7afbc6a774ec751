// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/middleware"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	logger        zerolog.Logger
}

// NewRouter creates a router for handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(handler *Handler, chiMiddleware *ChiMiddleware, logger zerolog.Logger) *Router {
	if chiMiddleware == nil {
		chiMiddleware = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMiddleware,
		logger:        logger,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(router.logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, CodeNotFound, "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Monitoring Endpoints
	// ========================
	// Not rate limited so probes and scrapers are never rejected
	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Recommendation API
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Post("/click", router.handler.Click)
		r.Post("/view", router.handler.View)
		r.Post("/train", router.handler.Train)
		r.Get("/recommendations", router.handler.Recommendations)
		r.Get("/ml/status", router.handler.MLStatus)
	})

	return r
}
