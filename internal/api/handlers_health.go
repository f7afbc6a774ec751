// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/marquee/internal/models"
)

const serviceName = "recommendation"

// Health handles GET /health. It answers 503 when the interaction store
// does not respond to a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("health check: interaction store unreachable")
		writeJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Status:   "unhealthy",
			Service:  serviceName,
			Database: "unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy", Service: serviceName})
}
