// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides HTTP middleware components for the API server.

All middleware has the chi signature func(http.Handler) http.Handler.

Key Components:

  - RequestID: UUID-based request tracking, propagated to the logging package
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - SecurityHeaders: nosniff, frame denial, referrer policy, HSTS over TLS

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
