// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package api provides the HTTP surface of the recommendation service.
//
// # Endpoints
//
//	POST /click            record a click       {"user_id": 7, "event_id": 3}
//	POST /view             record a view       {"user_id": 7, "event_id": 3, "view_duration": 12.5}
//	GET  /recommendations  ?user_id=&limit=    bare JSON array of catalog events
//	POST /train            run a training cycle
//	GET  /ml/status        model and interaction statistics
//	GET  /health           liveness and store reachability
//	GET  /metrics          Prometheus exposition
//
// user_id may be omitted or null for anonymous visitors. limit defaults to
// the engine's default limit and must not exceed its maximum.
//
// # Response Format
//
// Every endpoint except /recommendations, /health and /metrics answers
// with the standard envelope:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "...", "query_time_ms": 1, "request_id": "..."}
//	}
//
// Errors use the same envelope with status "error" and an error object
// carrying a machine-readable code (VALIDATION_ERROR, DATABASE_ERROR,
// TRAINING_FAILED, ...). Internal error text is logged, never returned.
//
// /recommendations returns the event array itself so existing frontends
// can consume it unchanged. The X-Recommendation-Tiers and X-Catalog-Origin
// headers describe how the list was built.
//
// # Middleware
//
// The router applies, in order: request IDs, access logging, real client
// IP, panic recovery, CORS, security headers and Prometheus metrics. The
// recommendation endpoints are additionally rate limited per client IP
// with go-chi/httprate; /health and /metrics are not.
//
// # Training Over HTTP
//
// POST /train is detached from the client connection and bounded by its
// own timeout. Concurrent requests share one run. Too little data is not
// an error: the response is 200 with status "skipped" and a reason.
package api
