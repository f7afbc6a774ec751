// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

// ClickRequest is the body of POST /click. UserID is omitted or null for
// anonymous visitors.
type ClickRequest struct {
	UserID  *int64 `json:"user_id" validate:"omitempty,gt=0"`
	EventID *int64 `json:"event_id" validate:"required,gt=0"`
}

// ViewRequest is the body of POST /view. ViewDuration is in seconds.
type ViewRequest struct {
	UserID       *int64   `json:"user_id" validate:"omitempty,gt=0"`
	EventID      *int64   `json:"event_id" validate:"required,gt=0"`
	ViewDuration *float64 `json:"view_duration" validate:"required,gte=0"`
}

// RecommendationsQuery holds the parsed query of GET /recommendations.
// The upper bound of Limit is configurable and checked by the handler.
type RecommendationsQuery struct {
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
	Limit  int    `json:"limit" validate:"min=1"`
}
