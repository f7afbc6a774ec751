// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestAPIResponse_ErrorOmittedOnSuccess(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&APIResponse{
		Status:   StatusSuccess,
		Data:     MessageData{Message: "Click recorded"},
		Metadata: Metadata{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got := string(data)
	if strings.Contains(got, `"error"`) {
		t.Errorf("success response contains error field: %s", got)
	}
	if !strings.Contains(got, `"data":{"message":"Click recorded"}`) {
		t.Errorf("unexpected data encoding: %s", got)
	}
}

func TestClickRequest_AnonymousForms(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"event_id": 4}`,
		`{"user_id": null, "event_id": 4}`,
	}
	for _, body := range bodies {
		var req ClickRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", body, err)
		}
		if req.UserID != nil {
			t.Errorf("%s: UserID = %d, want nil", body, *req.UserID)
		}
		if req.EventID == nil || *req.EventID != 4 {
			t.Errorf("%s: EventID = %v, want 4", body, req.EventID)
		}
	}
}
