// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"time"

	"github.com/tomtom215/marquee/internal/recommend"
)

// RecommendObserver feeds engine events into the Prometheus collectors.
type RecommendObserver struct{}

var _ recommend.Observer = RecommendObserver{}

// RecommendationServed records the tiers and size of one response.
func (RecommendObserver) RecommendationServed(resp *recommend.Response, d time.Duration) {
	RecommendationDuration.Observe(d.Seconds())
	RecommendationResultSize.Observe(float64(len(resp.Events)))

	lead := "none"
	if len(resp.Tiers) > 0 {
		lead = resp.Tiers[0]
	}
	RecommendationsServed.WithLabelValues(lead).Inc()
	for _, tier := range resp.Tiers {
		RecommendationTierUsage.WithLabelValues(tier).Inc()
	}
}

// TrainingFinished records the outcome of one training run.
func (RecommendObserver) TrainingFinished(res *recommend.TrainResult) {
	TrainingRuns.WithLabelValues(string(res.Outcome)).Inc()
	TrainingDuration.Observe(res.Duration.Seconds())
	if res.Outcome == recommend.OutcomeSuccess {
		TrainingLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// SnapshotPublished updates the model gauges.
func (RecommendObserver) SnapshotPublished(snap *recommend.Snapshot) {
	if snap == nil || snap.Model == nil {
		return
	}
	ModelUsers.Set(float64(len(snap.Model.UserClusters)))
	ModelClusters.Set(float64(snap.Model.K))
	ModelVersion.Set(float64(snap.Meta.Version))
}
