// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/validation"
)

// Response headers describing how a recommendation list was built.
const (
	headerCatalogOrigin = "X-Catalog-Origin"
	headerTiers         = "X-Recommendation-Tiers"
)

// Recommendations handles GET /recommendations?user_id=&limit=.
// The body is a bare JSON array of catalog events, never the envelope.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := parseOptionalInt64(r, "user_id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}
	limit, err := parseIntParam(r, "limit", h.limits.def)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}

	query := models.RecommendationsQuery{UserID: userID, Limit: limit}
	if verr := validation.ValidateStruct(&query); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	if verr := validation.ValidateVar("limit", limit, fmt.Sprintf("max=%d", h.limits.max)); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	resp := h.engine.Recommend(ctx, recommend.Request{UserID: userID, Limit: limit})

	events := resp.Events
	if events == nil {
		events = []recommend.CatalogEvent{}
	}
	w.Header().Set(headerCatalogOrigin, string(resp.CatalogOrigin))
	w.Header().Set(headerTiers, strings.Join(resp.Tiers, ","))
	writeJSON(w, http.StatusOK, events)
}

// Train handles POST /train. Insufficient data is a 200 with status
// "skipped"; only a store or persistence failure is a 500.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// The run may outlast the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(h.trainTimeout + trainWriteGrace)); err != nil {
		logging.Ctx(r.Context(), h.logger).Debug().Err(err).Msg("cannot extend write deadline for training request")
	}

	// The run is shared with other callers and must not die with this
	// client's connection.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.trainTimeout)
	defer cancel()

	res, err := h.engine.Train(ctx)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeTrainingFailed, "Failed to train model", err)
		return
	}

	data := trainData(res)
	logging.Ctx(r.Context(), h.logger).Info().
		Str("outcome", data.Status).
		Int("users", res.Users).
		Int("clusters", res.Clusters).
		Msg("training requested over HTTP")

	respondJSON(w, r, http.StatusOK, data, start)
}

func trainData(res *recommend.TrainResult) models.TrainData {
	data := models.TrainData{
		Status:     string(res.Outcome),
		Users:      res.Users,
		Clusters:   res.Clusters,
		Clicks:     res.Clicks,
		Version:    res.Version,
		Catalog:    string(res.CatalogOrigin),
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
	}
	if res.Outcome == recommend.OutcomeSuccess {
		data.Message = fmt.Sprintf("Model trained with %d users", res.Users)
	} else {
		data.Message = "Not enough data for training"
		data.Reason = res.Reason
	}
	return data
}

// MLStatus handles GET /ml/status.
func (h *Handler) MLStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	respondJSON(w, r, http.StatusOK, h.engine.Status(ctx), start)
}
