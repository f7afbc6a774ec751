// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package services adapts long-running components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown on cancel
//   - TrainingService: training on startup and on a fixed interval
//
// Each service implements fmt.Stringer so suture can name it in logs.
package services
