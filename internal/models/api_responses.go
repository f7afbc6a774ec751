// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse represents a standardized API response wrapper.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"message": "Click recorded"},
//	  "metadata": {"timestamp": "2025-11-28T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2025-11-28T12:00:00Z"},
//	  "error": {"code": "VALIDATION_ERROR", "message": "event_id is required"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Error codes:
//   - INVALID_REQUEST: Malformed JSON or query parameters
//   - VALIDATION_ERROR: Well-formed input that fails validation
//   - DATABASE_ERROR: Interaction store failure
//   - TRAINING_FAILED: Training could not load data or persist the model
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - NOT_FOUND, METHOD_NOT_ALLOWED: Routing errors
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MessageData is the payload of endpoints that only acknowledge a write.
type MessageData struct {
	Message string `json:"message"`
}

// TrainData is the payload of POST /train.
//
//	{"status": "success", "message": "Model trained with 12 users", "users": 12, "clusters": 5, "version": 3}
//	{"status": "skipped", "message": "Not enough data for training", "reason": "need at least 5 users, have 2"}
type TrainData struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Reason     string  `json:"reason,omitempty"`
	Users      int     `json:"users,omitempty"`
	Clusters   int     `json:"clusters,omitempty"`
	Clicks     int     `json:"clicks,omitempty"`
	Version    int64   `json:"version,omitempty"`
	Catalog    string  `json:"catalog_origin,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// HealthResponse is served unwrapped on GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database,omitempty"`
}
