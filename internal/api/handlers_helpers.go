// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/validation"
)

// API error codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationError  = validation.CodeValidationError
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeTrainingFailed   = "TRAINING_FAILED"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// errEmptyBody is returned by decodeJSONBody for a request without a body.
var errEmptyBody = errors.New("request body is empty")

// sanitizeLogValue replaces control characters so client input cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// writeJSON marshals v and writes it with status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondJSON sends an enveloped JSON response.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	writeJSON(w, status, &models.APIResponse{
		Status: models.StatusSuccess,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
		},
	})
}

// respondError sends an error envelope. A non-nil err is logged with the
// request ID; it is never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}, err error) {
	ctx := r.Context()
	if err != nil {
		logging.Ctx(ctx, logging.Logger()).Error().
			Str("code", sanitizeLogValue(code)).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	writeJSON(w, status, &models.APIResponse{
		Status: models.StatusError,
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(ctx),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondValidation sends a 400 VALIDATION_ERROR built from verr.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
}

// decodeJSONBody decodes a bounded JSON request body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into dst and validates it, writing the
// error response itself. It reports whether the handler may proceed.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(w, r, dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, CodeInvalidRequest, "Request body too large", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON body", nil)
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondValidation(w, r, verr)
		return false
	}
	return true
}

// parseOptionalInt64 parses an optional integer query parameter.
func parseOptionalInt64(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}

// parseIntParam parses an optional integer query parameter with a default.
func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
