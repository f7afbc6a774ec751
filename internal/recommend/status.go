// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"strconv"
)

// topCategoryCount is how many categories /ml/status lists per cluster.
const topCategoryCount = 3

// Status reports what the model store holds and recent click volume.
// Each artifact is inspected on its own, so a missing half is reported
// rather than failing the whole document. Status never mutates state.
func (e *Engine) Status(ctx context.Context) *MLStatus {
	st := &MLStatus{Training: e.TrainingStatus()}

	insp := e.models.Inspect(ctx)
	if insp.Model != nil {
		st.ModelExists = true
		sizes := insp.Model.ClusterSizes()
		perCluster := make(map[string]int, len(sizes))
		for c, n := range sizes {
			perCluster[strconv.Itoa(c)] = n
		}
		st.ModelStats = &ModelStats{
			TotalUsers:      len(insp.Model.UserClusters),
			Clusters:        len(sizes), // non-empty clusters only
			UsersPerCluster: perCluster,
		}
	} else if insp.ModelErr != nil && !errors.Is(insp.ModelErr, ErrModelAbsent) {
		st.ModelError = insp.ModelErr.Error()
	}

	if insp.Preferences != nil {
		st.PreferencesExist = true
		st.ClusterStats = make(map[string]ClusterStats, len(insp.Preferences))
		for c, weights := range insp.Preferences {
			top := RankCategories(weights)
			if len(top) > topCategoryCount {
				top = top[:topCategoryCount]
			}
			st.ClusterStats[strconv.Itoa(c)] = ClusterStats{TopCategories: top, CategoryWeights: weights}
		}
	} else if insp.PreferencesErr != nil && !errors.Is(insp.PreferencesErr, ErrModelAbsent) {
		st.PreferencesError = insp.PreferencesErr.Error()
	}

	if insp.Meta != nil {
		saved := insp.Meta.SavedAt
		st.LastUpdated = &saved
		st.Version = insp.Meta.Version
	}

	stats, err := e.interactions.ClickStatsSince(ctx, e.now().Add(-e.config.TrendingWindow))
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to load click statistics")
		st.InteractionsError = err.Error()
	} else {
		st.InteractionStats = &InteractionStats{TotalClicks: stats.TotalClicks, UniqueUsers: stats.UniqueUsers}
	}

	return st
}
