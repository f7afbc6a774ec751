// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Note: This package has no dependencies on other internal packages.
// Storage, catalog and database layers implement the interfaces below.

// InteractionStore reads the click log.
type InteractionStore interface {
	// ClicksSince returns every click (anonymous included) at or after since.
	ClicksSince(ctx context.Context, since time.Time) ([]Interaction, error)

	// UserClicksSince returns one user's clicks at or after since.
	UserClicksSince(ctx context.Context, userID int64, since time.Time) ([]Interaction, error)

	// TopClickedSince ranks events by click count, at most limit entries.
	TopClickedSince(ctx context.Context, since time.Time, limit int) ([]EventCount, error)

	// ClickStatsSince counts clicks and distinct users.
	ClickStatsSince(ctx context.Context, since time.Time) (ClickStats, error)
}

// CatalogResolver returns the current catalog. Resolution never fails:
// implementations fall back to a static catalog.
type CatalogResolver interface {
	Resolve(ctx context.Context) ([]CatalogEvent, CatalogOrigin)
}

// ModelStore persists snapshots. Save must be all-or-nothing.
type ModelStore interface {
	// Save persists the snapshot and returns its metadata.
	Save(ctx context.Context, snap *Snapshot) (*SnapshotMeta, error)

	// Load returns the last saved snapshot, ErrModelAbsent if there is
	// none, or an error wrapping ErrModelCorrupt.
	Load(ctx context.Context) (*Snapshot, error)

	// Inspect reads each artifact independently.
	Inspect(ctx context.Context) *Inspection

	Close() error
}

// Observer receives engine events, typically to update metrics.
type Observer interface {
	RecommendationServed(resp *Response, d time.Duration)
	TrainingFinished(res *TrainResult)
	SnapshotPublished(snap *Snapshot)
}

type noopObserver struct{}

func (noopObserver) RecommendationServed(*Response, time.Duration) {}
func (noopObserver) TrainingFinished(*TrainResult)                  {}
func (noopObserver) SnapshotPublished(*Snapshot)                    {}

// Dependencies are the collaborators of an Engine.
type Dependencies struct {
	Interactions InteractionStore
	Catalog      CatalogResolver
	Models       ModelStore

	// Observer is optional.
	Observer Observer

	// Now is optional and defaults to time.Now.
	Now func() time.Time
}

// Engine trains cluster models and serves recommendations.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	interactions InteractionStore
	catalog      CatalogResolver
	models       ModelStore
	observer     Observer
	now          func() time.Time

	// snapshot is the last committed model; nil until one exists.
	snapshot atomic.Pointer[Snapshot]

	// trainMu serializes train-and-persist; trainGroup collapses
	// concurrent callers onto one run.
	trainMu     sync.Mutex
	trainGroup  singleflight.Group
	statusMu    sync.RWMutex
	trainStatus TrainingStatus

	// Random source for result shuffling (protected by rngMu)
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Interactions == nil {
		return nil, errors.New("interaction store is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog resolver is required")
	}
	if deps.Models == nil {
		return nil, errors.New("model store is required")
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Engine{
		config:       cfg.Clone(),
		logger:       logger.With().Str("component", "recommend").Logger(),
		interactions: deps.Interactions,
		catalog:      deps.Catalog,
		models:       deps.Models,
		observer:     deps.Observer,
		now:          deps.Now,
		rng:          rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // math/rand is fine for recommendation shuffling
	}, nil
}

// Restore loads the last committed snapshot from the model store. A missing
// or corrupt snapshot leaves the engine without a model; it is never fatal.
func (e *Engine) Restore(ctx context.Context) bool {
	snap, err := e.models.Load(ctx)
	switch {
	case err == nil:
		e.publish(snap)
		e.logger.Info().
			Int64("version", snap.Meta.Version).
			Int("users", len(snap.Model.UserClusters)).
			Int("clusters", snap.Model.K).
			Msg("restored cluster model")
		return true
	case errors.Is(err, ErrModelAbsent):
		e.logger.Info().Msg("no stored cluster model, serving without personalization")
	case errors.Is(err, ErrModelCorrupt):
		e.logger.Error().Err(err).Msg("stored cluster model is corrupt, treating as absent")
	default:
		e.logger.Error().Err(err).Msg("failed to read stored cluster model, treating as absent")
	}
	return false
}

// Snapshot returns the currently published snapshot, or nil.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

func (e *Engine) publish(snap *Snapshot) {
	e.snapshot.Store(snap)
	e.observer.SnapshotPublished(snap)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// TrainingStatus returns the current training state.
func (e *Engine) TrainingStatus() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.trainStatus
}

// shuffled returns a shuffled copy of events.
func (e *Engine) shuffled(events []CatalogEvent) []CatalogEvent {
	out := make([]CatalogEvent, len(events))
	copy(out, events)

	e.rngMu.Lock()
	e.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	e.rngMu.Unlock()
	return out
}
