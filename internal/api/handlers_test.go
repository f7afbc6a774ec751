// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/recommend"
)

var fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

type recordedInteraction struct {
	userID   *int64
	eventID  int64
	duration float64
	at       time.Time
}

// fakeRecorder is an in-memory InteractionRecorder.
type fakeRecorder struct {
	mu      sync.Mutex
	clicks  []recordedInteraction
	views   []recordedInteraction
	err     error
	pingErr error
}

func (f *fakeRecorder) RecordClick(_ context.Context, userID *int64, eventID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.clicks = append(f.clicks, recordedInteraction{userID: userID, eventID: eventID, at: at})
	return nil
}

func (f *fakeRecorder) RecordView(_ context.Context, userID *int64, eventID int64, duration float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.views = append(f.views, recordedInteraction{userID: userID, eventID: eventID, duration: duration, at: at})
	return nil
}

func (f *fakeRecorder) Ping(context.Context) error {
	return f.pingErr
}

// fakeEngine is a scripted Recommender.
type fakeEngine struct {
	mu       sync.Mutex
	resp     *recommend.Response
	lastReq  recommend.Request
	train    *recommend.TrainResult
	trainErr error
	trainCtx context.Context
	trainFor time.Duration
	status   *recommend.MLStatus
}

func (f *fakeEngine) Recommend(_ context.Context, req recommend.Request) *recommend.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	if f.resp == nil {
		return &recommend.Response{}
	}
	return f.resp
}

func (f *fakeEngine) Train(ctx context.Context) (*recommend.TrainResult, error) {
	if f.trainFor > 0 {
		time.Sleep(f.trainFor)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trainCtx = ctx
	return f.train, f.trainErr
}

func (f *fakeEngine) Status(context.Context) *recommend.MLStatus {
	if f.status == nil {
		return &recommend.MLStatus{}
	}
	return f.status
}

func (f *fakeEngine) Config() *recommend.Config {
	return recommend.DefaultConfig()
}

func newTestHandler(engine *fakeEngine, store *fakeRecorder) *Handler {
	return NewHandler(engine, store, HandlerOptions{Now: func() time.Time { return fixedNow }}, zerolog.Nop())
}

// decodeEnvelope decodes an APIResponse, leaving Data as raw JSON.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (models.APIResponse, json.RawMessage) {
	t.Helper()

	var raw struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	return raw.APIResponse, raw.Data
}

func mustEvent(t *testing.T, id int64, category string) recommend.CatalogEvent {
	t.Helper()
	ev, err := recommend.NewCatalogEvent(id, category, map[string]any{"name": "event"})
	if err != nil {
		t.Fatalf("NewCatalogEvent: %v", err)
	}
	return ev
}

func TestHandler_Click(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		storeErr   error
		wantStatus int
		wantCode   string
		wantUser   *int64
	}{
		{name: "known user", body: `{"user_id": 7, "event_id": 3}`, wantStatus: http.StatusOK, wantUser: ptr(int64(7))},
		{name: "anonymous omitted", body: `{"event_id": 3}`, wantStatus: http.StatusOK},
		{name: "anonymous null", body: `{"user_id": null, "event_id": 3}`, wantStatus: http.StatusOK},
		{name: "missing event id", body: `{"user_id": 7}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
		{name: "zero event id", body: `{"event_id": 0}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
		{name: "zero user id", body: `{"user_id": 0, "event_id": 3}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
		{name: "negative user id", body: `{"user_id": -4, "event_id": 3}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
		{name: "malformed json", body: `{"event_id": 3`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest},
		{name: "string event id", body: `{"event_id": "3"}`, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest},
		{name: "store failure", body: `{"event_id": 3}`, storeErr: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantCode: CodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeRecorder{err: tt.storeErr}
			h := newTestHandler(&fakeEngine{}, store)

			rec := httptest.NewRecorder()
			h.Click(rec, httptest.NewRequest(http.MethodPost, "/click", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp, data := decodeEnvelope(t, rec)

			if tt.wantCode != "" {
				if resp.Status != models.StatusError || resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				if strings.Contains(rec.Body.String(), "disk full") {
					t.Error("internal error text leaked to the client")
				}
				return
			}

			var msg models.MessageData
			if err := json.Unmarshal(data, &msg); err != nil || msg.Message != "Click recorded" {
				t.Errorf("data = %s, want Click recorded", data)
			}
			if len(store.clicks) != 1 {
				t.Fatalf("recorded %d clicks, want 1", len(store.clicks))
			}
			got := store.clicks[0]
			if got.eventID != 3 || !got.at.Equal(fixedNow) {
				t.Errorf("recorded %+v", got)
			}
			if (got.userID == nil) != (tt.wantUser == nil) || (got.userID != nil && *got.userID != *tt.wantUser) {
				t.Errorf("user = %v, want %v", got.userID, tt.wantUser)
			}
		})
	}
}

func TestHandler_View(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "with duration", body: `{"user_id": 2, "event_id": 5, "view_duration": 31.5}`, wantStatus: http.StatusOK},
		{name: "zero duration", body: `{"event_id": 5, "view_duration": 0}`, wantStatus: http.StatusOK},
		{name: "missing duration", body: `{"event_id": 5}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
		{name: "negative duration", body: `{"event_id": 5, "view_duration": -1}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
		{name: "missing event id", body: `{"view_duration": 3}`, wantStatus: http.StatusBadRequest, wantCode: CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeRecorder{}
			h := newTestHandler(&fakeEngine{}, store)

			rec := httptest.NewRecorder()
			h.View(rec, httptest.NewRequest(http.MethodPost, "/view", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp, _ := decodeEnvelope(t, rec)
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
				}
				if len(store.views) != 0 {
					t.Error("invalid view was recorded")
				}
				return
			}
			if len(store.views) != 1 || store.views[0].eventID != 5 {
				t.Errorf("views = %+v", store.views)
			}
			if len(store.clicks) != 0 {
				t.Error("view recorded as a click")
			}
		})
	}
}

func TestHandler_View_Body(t *testing.T) {
	t.Parallel()

	store := &fakeRecorder{}
	h := newTestHandler(&fakeEngine{}, store)

	rec := httptest.NewRecorder()
	h.View(rec, httptest.NewRequest(http.MethodPost, "/view", strings.NewReader(`{"event_id": 5, "view_duration": 12}`)))

	_, data := decodeEnvelope(t, rec)
	if string(data) != `{"message":"View recorded"}` {
		t.Errorf("data = %s", data)
	}
	if store.views[0].duration != 12 || store.views[0].userID != nil {
		t.Errorf("view = %+v", store.views[0])
	}
}

func TestHandler_Recommendations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantCode  string
		wantLimit int
		wantUser  *int64
	}{
		{name: "defaults", query: "", wantLimit: 5},
		{name: "user and limit", query: "?user_id=12&limit=7", wantLimit: 7, wantUser: ptr(int64(12))},
		{name: "max limit", query: "?limit=20", wantLimit: 20},
		{name: "empty user id is anonymous", query: "?user_id=", wantLimit: 5},
		{name: "limit zero", query: "?limit=0", wantCode: CodeValidationError},
		{name: "limit negative", query: "?limit=-2", wantCode: CodeValidationError},
		{name: "limit above max", query: "?limit=21", wantCode: CodeValidationError},
		{name: "limit not a number", query: "?limit=ten", wantCode: CodeInvalidRequest},
		{name: "user id not a number", query: "?user_id=abc", wantCode: CodeInvalidRequest},
		{name: "user id zero", query: "?user_id=0", wantCode: CodeValidationError},
		{name: "user id negative", query: "?user_id=-5", wantCode: CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &fakeEngine{resp: &recommend.Response{
				Events:        []recommend.CatalogEvent{mustEvent(t, 4, "concerts"), mustEvent(t, 2, "sport")},
				Tiers:         []string{recommend.TierCluster, recommend.TierTrending},
				CatalogOrigin: recommend.CatalogLive,
			}}
			h := newTestHandler(engine, &fakeRecorder{})

			rec := httptest.NewRecorder()
			h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/recommendations"+tt.query, nil))

			if tt.wantCode != "" {
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("status = %d, want 400", rec.Code)
				}
				resp, _ := decodeEnvelope(t, rec)
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
				}
				return
			}

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var events []map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
				t.Fatalf("body is not a bare array: %s", rec.Body.String())
			}
			if len(events) != 2 || events[0]["id"] != float64(4) || events[0]["name"] != "event" {
				t.Errorf("events = %v", events)
			}
			if engine.lastReq.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", engine.lastReq.Limit, tt.wantLimit)
			}
			if (engine.lastReq.UserID == nil) != (tt.wantUser == nil) ||
				(tt.wantUser != nil && *engine.lastReq.UserID != *tt.wantUser) {
				t.Errorf("user = %v, want %v", engine.lastReq.UserID, tt.wantUser)
			}
			if rec.Header().Get(headerTiers) != "cluster,trending" || rec.Header().Get(headerCatalogOrigin) != "live" {
				t.Errorf("headers = %v", rec.Header())
			}
		})
	}
}

func TestHandler_Recommendations_EmptyIsArray(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&fakeEngine{resp: &recommend.Response{}}, &fakeRecorder{})
	rec := httptest.NewRecorder()
	h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/recommendations", nil))

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestHandler_Train(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      *recommend.TrainResult
		err         error
		wantStatus  int
		wantOutcome string
		wantMessage string
	}{
		{
			name:        "success",
			result:      &recommend.TrainResult{Outcome: recommend.OutcomeSuccess, Users: 6, Clusters: 3, Version: 2, Duration: 1500 * time.Microsecond},
			wantStatus:  http.StatusOK,
			wantOutcome: "success",
			wantMessage: "Model trained with 6 users",
		},
		{
			name:        "skipped",
			result:      &recommend.TrainResult{Outcome: recommend.OutcomeSkipped, Reason: "need at least 5 users, have 2", Users: 2},
			wantStatus:  http.StatusOK,
			wantOutcome: "skipped",
			wantMessage: "Not enough data for training",
		},
		{
			name:       "store failure",
			result:     &recommend.TrainResult{Outcome: recommend.OutcomeFailed},
			err:        errors.New("load clicks: connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &fakeEngine{train: tt.result, trainErr: tt.err}
			h := newTestHandler(engine, &fakeRecorder{})

			rec := httptest.NewRecorder()
			h.Train(rec, httptest.NewRequest(http.MethodPost, "/train", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp, data := decodeEnvelope(t, rec)
			if tt.err != nil {
				if resp.Error == nil || resp.Error.Code != CodeTrainingFailed {
					t.Errorf("error = %+v, want TRAINING_FAILED", resp.Error)
				}
				return
			}

			var got models.TrainData
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if got.Status != tt.wantOutcome || got.Message != tt.wantMessage {
				t.Errorf("data = %+v", got)
			}
			if tt.result.Outcome == recommend.OutcomeSkipped && got.Reason == "" {
				t.Error("skipped run without a reason")
			}
		})
	}
}

func TestHandler_Train_DetachedFromClient(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{train: &recommend.TrainResult{Outcome: recommend.OutcomeSkipped}}
	h := newTestHandler(engine, &fakeRecorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/train", nil).WithContext(ctx)
	h.Train(httptest.NewRecorder(), req)

	if engine.trainCtx.Err() != nil {
		t.Error("training context was cancelled with the client request")
	}
	if _, ok := engine.trainCtx.Deadline(); !ok {
		t.Error("training context has no deadline")
	}
}

func TestHandler_Train_OutlastsWriteTimeout(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		train:    &recommend.TrainResult{Outcome: recommend.OutcomeSuccess, Users: 6, Clusters: 3},
		trainFor: 1500 * time.Millisecond,
	}
	h := NewHandler(engine, &fakeRecorder{}, HandlerOptions{TrainTimeout: 10 * time.Second}, zerolog.Nop())

	srv := httptest.NewUnstartedServer(http.HandlerFunc(h.Train))
	srv.Config.WriteTimeout = time.Second
	srv.Start()
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/train", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /train error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Data models.TrainData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Status != "success" || body.Data.Message != "Model trained with 6 users" {
		t.Errorf("data = %+v", body.Data)
	}
}

func TestHandler_MLStatus(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{status: &recommend.MLStatus{
		ModelExists:      true,
		PreferencesExist: true,
		ModelStats:       &recommend.ModelStats{TotalUsers: 8, Clusters: 4},
		InteractionStats: &recommend.InteractionStats{TotalClicks: 40, UniqueUsers: 8},
		Version:          3,
	}}
	h := newTestHandler(engine, &fakeRecorder{})

	rec := httptest.NewRecorder()
	h.MLStatus(rec, httptest.NewRequest(http.MethodGet, "/ml/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp, data := decodeEnvelope(t, rec)
	if resp.Status != models.StatusSuccess {
		t.Errorf("status = %s", resp.Status)
	}
	var st map[string]any
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if st["ml_model_exists"] != true || st["cluster_preferences_exists"] != true {
		t.Errorf("status document = %v", st)
	}
	stats, _ := st["interaction_stats"].(map[string]any)
	if stats["total_clicks_30_days"] != float64(40) {
		t.Errorf("interaction_stats = %v", st["interaction_stats"])
	}
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantBody: `{"status":"healthy","service":"recommendation"}`},
		{name: "database down", pingErr: errors.New("closed"), wantStatus: http.StatusServiceUnavailable,
			wantBody: `{"status":"unhealthy","service":"recommendation","database":"unreachable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(&fakeEngine{}, &fakeRecorder{pingErr: tt.pingErr})
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != tt.wantBody {
				t.Errorf("body = %s, want %s", body, tt.wantBody)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("bad\nline\x7f"); got != `bad\x0aline\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}

func ptr[T any](v T) *T { return &v }
