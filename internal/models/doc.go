// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package models defines the request and response types of the HTTP API.
//
// Every endpoint except GET /recommendations and GET /health wraps its
// payload in APIResponse. Request bodies carry validate tags consumed by
// the validation package.
package models
