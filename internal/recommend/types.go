// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrInsufficientData is returned when the training window holds no
	// usable clicks. It marks a skippable condition, not a failure.
	ErrInsufficientData = errors.New("insufficient interaction data")

	// ErrModelAbsent is returned by a ModelStore when no snapshot was ever saved.
	ErrModelAbsent = errors.New("model absent")

	// ErrModelCorrupt is wrapped by a ModelStore when stored state cannot be decoded.
	ErrModelCorrupt = errors.New("model corrupt")
)

// InteractionKind distinguishes clicks from views.
type InteractionKind string

const (
	KindClick InteractionKind = "click"
	KindView  InteractionKind = "view"
)

// Interaction is one recorded click or view.
type Interaction struct {
	Kind InteractionKind `json:"kind"`

	// UserID is nil for anonymous visitors.
	UserID *int64 `json:"user_id,omitempty"`

	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	// Duration is the view duration in seconds. Recorded for views only
	// and never used for training.
	Duration *float64 `json:"duration,omitempty"`
}

// EventCount is an event with its aggregate click count.
type EventCount struct {
	EventID int64 `json:"event_id"`
	Clicks  int64 `json:"clicks"`
}

// ClickStats summarizes clicks over a window.
type ClickStats struct {
	TotalClicks int64 `json:"total_clicks"`
	UniqueUsers int64 `json:"unique_users"`
}

// CatalogEvent is one event of the catalog. ID and Category are interpreted
// by the engine; every other field is carried through verbatim.
type CatalogEvent struct {
	ID       int64
	Category string

	// Fields holds the raw JSON of every display field (name, image, date...).
	Fields map[string]json.RawMessage
}

// NewCatalogEvent builds a CatalogEvent from plain display values.
func NewCatalogEvent(id int64, category string, fields map[string]any) (CatalogEvent, error) {
	ev := CatalogEvent{ID: id, Category: category, Fields: make(map[string]json.RawMessage, len(fields))}
	for k, v := range fields {
		if k == "id" || k == "category" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return CatalogEvent{}, fmt.Errorf("encode field %q: %w", k, err)
		}
		ev.Fields[k] = raw
	}
	return ev, nil
}

// MarshalJSON writes the event as a flat object.
func (e CatalogEvent) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}

	id, err := json.Marshal(e.ID)
	if err != nil {
		return nil, err
	}
	category, err := json.Marshal(e.Category)
	if err != nil {
		return nil, err
	}
	out["id"] = id
	out["category"] = category
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat event object. The id is required; a null or
// missing category decodes as the empty string.
func (e *CatalogEvent) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	idRaw, ok := raw["id"]
	if !ok {
		return errors.New("catalog event: missing id")
	}
	var id int64
	if err := json.Unmarshal(idRaw, &id); err != nil {
		return fmt.Errorf("catalog event: invalid id: %w", err)
	}

	var category *string
	if c, ok := raw["category"]; ok {
		if err := json.Unmarshal(c, &category); err != nil {
			return fmt.Errorf("catalog event %d: invalid category: %w", id, err)
		}
	}

	delete(raw, "id")
	delete(raw, "category")

	e.ID = id
	e.Category = ""
	if category != nil {
		e.Category = *category
	}
	e.Fields = raw
	return nil
}

// CatalogOrigin tells which catalog served a request.
type CatalogOrigin string

const (
	CatalogLive     CatalogOrigin = "live"
	CatalogFallback CatalogOrigin = "fallback"
)

// Scaler holds per-feature standardization parameters.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ClusterModel is the persisted result of one training run.
type ClusterModel struct {
	// K is the number of clusters.
	K int `json:"k"`

	// EventIDs is the feature order of the matrix the model was fit on.
	EventIDs []int64 `json:"event_ids"`

	// Scaler standardizes a raw count vector before distance computation.
	Scaler Scaler `json:"scaler"`

	// Centroids are in standardized space, one per cluster.
	Centroids [][]float64 `json:"centroids"`

	// UserClusters maps each trained user to a cluster in [0, K).
	UserClusters map[int64]int `json:"user_clusters"`

	Inertia    float64   `json:"inertia"`
	Iterations int       `json:"iterations"`
	Seed       int64     `json:"seed"`
	TrainedAt  time.Time `json:"trained_at"`
}

// ClusterOf returns the cluster of a trained user.
func (m *ClusterModel) ClusterOf(userID int64) (int, bool) {
	if m == nil {
		return 0, false
	}
	c, ok := m.UserClusters[userID]
	return c, ok
}

// ClusterSizes counts users per cluster.
func (m *ClusterModel) ClusterSizes() map[int]int {
	sizes := make(map[int]int, m.K)
	for _, c := range m.UserClusters {
		sizes[c]++
	}
	return sizes
}

// PreferenceTable maps cluster id to accumulated click weight per category.
type PreferenceTable map[int]map[string]float64

// SnapshotMeta describes one persisted snapshot.
type SnapshotMeta struct {
	Version  int64     `json:"version"`
	SavedAt  time.Time `json:"saved_at"`
	Users    int       `json:"users"`
	Clusters int       `json:"clusters"`

	// ModelChecksum is the SHA-256 of the uncompressed model encoding.
	ModelChecksum string `json:"model_checksum,omitempty"`
}

// Snapshot pairs a model with the preference table derived in the same run.
// A snapshot is immutable once published.
type Snapshot struct {
	Model       *ClusterModel
	Preferences PreferenceTable
	Meta        SnapshotMeta
}

// Inspection is a best-effort read of each stored artifact on its own.
type Inspection struct {
	Model          *ClusterModel
	ModelErr       error
	Preferences    PreferenceTable
	PreferencesErr error
	Meta           *SnapshotMeta
}

// Request is a recommendation request.
type Request struct {
	// UserID is nil for anonymous visitors.
	UserID *int64

	// Limit is the maximum number of events returned. Values outside
	// [1, MaxLimit] are clamped.
	Limit int
}

// Tier names reported in Response.Tiers.
const (
	TierCluster      = "cluster"
	TierRecentClicks = "recent_clicks"
	TierTrending     = "trending"
	TierRandom       = "random"
)

// Response is an ordered, duplicate-free list of catalog events.
type Response struct {
	Events        []CatalogEvent
	Tiers         []string
	CatalogOrigin CatalogOrigin
}

// TrainOutcome is the result class of a training run.
type TrainOutcome string

const (
	OutcomeSuccess TrainOutcome = "success"
	OutcomeSkipped TrainOutcome = "skipped"
	OutcomeFailed  TrainOutcome = "failed"
)

// TrainResult describes one training run.
type TrainResult struct {
	Outcome TrainOutcome `json:"outcome"`

	// Reason explains a skipped or failed run.
	Reason string `json:"reason,omitempty"`

	Users         int           `json:"users"`
	Events        int           `json:"events"`
	Clicks        int           `json:"clicks"`
	Clusters      int           `json:"clusters"`
	Version       int64         `json:"version,omitempty"`
	CatalogOrigin CatalogOrigin `json:"catalog_origin,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// TrainingStatus reports the training state of the engine.
type TrainingStatus struct {
	IsTraining    bool          `json:"is_training"`
	LastOutcome   TrainOutcome  `json:"last_outcome,omitempty"`
	LastTrainedAt time.Time     `json:"last_trained_at,omitempty"`
	LastDuration  time.Duration `json:"last_duration"`
	LastError     string        `json:"last_error,omitempty"`
	Runs          int64         `json:"runs"`
}

// MLStatus is the introspection document served on /ml/status.
type MLStatus struct {
	ModelExists       bool                    `json:"ml_model_exists"`
	PreferencesExist  bool                    `json:"cluster_preferences_exists"`
	ModelError        string                  `json:"model_error,omitempty"`
	PreferencesError  string                  `json:"preferences_error,omitempty"`
	ModelStats        *ModelStats             `json:"model_stats,omitempty"`
	ClusterStats      map[string]ClusterStats `json:"cluster_stats,omitempty"`
	InteractionStats  *InteractionStats       `json:"interaction_stats,omitempty"`
	InteractionsError string                  `json:"interaction_stats_error,omitempty"`
	LastUpdated       *time.Time              `json:"last_updated,omitempty"`
	Version           int64                   `json:"version,omitempty"`
	Training          TrainingStatus          `json:"training"`
}

// ModelStats summarizes a ClusterModel.
type ModelStats struct {
	TotalUsers      int            `json:"total_users_in_model"`
	Clusters        int            `json:"clusters"`
	UsersPerCluster map[string]int `json:"users_per_cluster"`
}

// ClusterStats summarizes one cluster's preferences.
type ClusterStats struct {
	TopCategories   []string           `json:"top_categories"`
	CategoryWeights map[string]float64 `json:"category_weights"`
}

// InteractionStats summarizes recent clicks.
type InteractionStats struct {
	TotalClicks int64 `json:"total_clicks_30_days"`
	UniqueUsers int64 `json:"unique_users_30_days"`
}
