// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Train runs one train-and-persist cycle. Concurrent callers share the
// result of a single run. An insufficient-data run returns a skipped
// result and a nil error; only store and cancellation failures are errors.
func (e *Engine) Train(ctx context.Context) (*TrainResult, error) {
	v, err, shared := e.trainGroup.Do("train", func() (interface{}, error) {
		return e.train(ctx)
	})
	if shared {
		e.logger.Debug().Msg("joined in-flight training run")
	}
	res, _ := v.(*TrainResult)
	return res, err
}

func (e *Engine) train(ctx context.Context) (*TrainResult, error) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	start := e.now()
	e.setTraining(true)

	res, err := e.runTraining(ctx)
	res.Duration = e.now().Sub(start)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = err.Error()
	}

	e.finishTraining(res, start)
	e.observer.TrainingFinished(res)
	return res, err
}

func (e *Engine) runTraining(ctx context.Context) (*TrainResult, error) {
	res := &TrainResult{}
	trainedAt := e.now().UTC()

	clicks, err := e.interactions.ClicksSince(ctx, trainedAt.Add(-e.config.TrainingWindow))
	if err != nil {
		return res, fmt.Errorf("load clicks: %w", err)
	}

	m, err := BuildMatrix(clicks)
	if errors.Is(err, ErrInsufficientData) {
		return e.skip(res, "no clicks from known users in the training window"), nil
	}
	res.Users, res.Events, res.Clicks = len(m.UserIDs), len(m.EventIDs), m.Clicks

	if len(m.UserIDs) < e.config.MinUsers {
		return e.skip(res, fmt.Sprintf("need at least %d users, have %d", e.config.MinUsers, len(m.UserIDs))), nil
	}

	scaler := FitScaler(m.Rows)
	k := e.config.clusterCount(len(m.UserIDs))
	km, err := KMeans(ctx, scaler.Transform(m.Rows), KMeansConfig{
		K:             k,
		MaxIterations: e.config.MaxIterations,
		NInit:         e.config.NInit,
		Tolerance:     e.config.Tolerance,
		Seed:          e.config.Seed,
	})
	if err != nil {
		return res, fmt.Errorf("cluster users: %w", err)
	}

	userClusters := make(map[int64]int, len(m.UserIDs))
	for i, uid := range m.UserIDs {
		userClusters[uid] = km.Labels[i]
	}

	catalog, origin := e.catalog.Resolve(ctx)
	res.CatalogOrigin = origin
	prefs := BuildPreferences(m, userClusters, categoryIndex(catalog))

	snap := &Snapshot{
		Model: &ClusterModel{
			K:            k,
			EventIDs:     m.EventIDs,
			Scaler:       scaler,
			Centroids:    km.Centroids,
			UserClusters: userClusters,
			Inertia:      km.Inertia,
			Iterations:   km.Iterations,
			Seed:         e.config.Seed,
			TrainedAt:    trainedAt,
		},
		Preferences: prefs,
	}

	// Nothing is durable until Save commits; stop here on shutdown.
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("training interrupted: %w", err)
	}

	meta, err := e.models.Save(ctx, snap)
	if err != nil {
		return res, fmt.Errorf("save model: %w", err)
	}
	snap.Meta = *meta
	e.publish(snap)

	res.Outcome = OutcomeSuccess
	res.Clusters = k
	res.Version = meta.Version

	e.logger.Info().
		Int("users", res.Users).
		Int("events", res.Events).
		Int("clusters", k).
		Int("iterations", km.Iterations).
		Float64("inertia", km.Inertia).
		Str("catalog", string(origin)).
		Int64("version", meta.Version).
		Msg("cluster model trained")

	return res, nil
}

func (e *Engine) skip(res *TrainResult, reason string) *TrainResult {
	res.Outcome = OutcomeSkipped
	res.Reason = reason
	e.logger.Info().Str("reason", reason).Msg("training skipped, keeping previous model")
	return res
}

func (e *Engine) setTraining(on bool) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.trainStatus.IsTraining = on
}

func (e *Engine) finishTraining(res *TrainResult, start time.Time) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.trainStatus.IsTraining = false
	e.trainStatus.Runs++
	e.trainStatus.LastOutcome = res.Outcome
	e.trainStatus.LastDuration = res.Duration
	e.trainStatus.LastError = ""
	switch res.Outcome {
	case OutcomeSuccess:
		e.trainStatus.LastTrainedAt = start
	case OutcomeFailed:
		e.trainStatus.LastError = res.Reason
		e.logger.Error().Str("error", res.Reason).Msg("training failed")
	}
}
