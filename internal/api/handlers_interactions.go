// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

// Click handles POST /click.
//
//	{"user_id": 7, "event_id": 12}
//	{"event_id": 12}                 anonymous visitor
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ClickRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.store.RecordClick(r.Context(), req.UserID, *req.EventID, h.now().UTC()); err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeDatabaseError, "Failed to record click", err)
		return
	}
	metrics.RecordInteraction("click", req.UserID == nil)

	respondJSON(w, r, http.StatusOK, models.MessageData{Message: "Click recorded"}, start)
}

// View handles POST /view. The duration is stored but never used for
// training.
//
//	{"user_id": 7, "event_id": 12, "view_duration": 34.5}
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ViewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.store.RecordView(r.Context(), req.UserID, *req.EventID, *req.ViewDuration, h.now().UTC()); err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeDatabaseError, "Failed to record view", err)
		return
	}
	metrics.RecordInteraction("view", req.UserID == nil)

	respondJSON(w, r, http.StatusOK, models.MessageData{Message: "View recorded"}, start)
}
