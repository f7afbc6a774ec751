// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package validation provides request validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata and is safe for concurrent use. Failures are reported under the
// field's json name and convert to the API's VALIDATION_ERROR format.
//
//	type ClickRequest struct {
//	    UserID  *int64 `json:"user_id" validate:"omitempty,gt=0"`
//	    EventID *int64 `json:"event_id" validate:"required,gt=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError() // Code "VALIDATION_ERROR", Message "event_id is required"
//	}
//
// ValidateVar covers bounds known only at runtime, such as the configured
// maximum recommendation limit.
package validation
