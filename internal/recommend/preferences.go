// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"sort"
)

// BuildPreferences accumulates each user's click counts into the category
// weights of the user's cluster. Events without a known, non-empty category
// are skipped.
func BuildPreferences(m *InteractionMatrix, clusters map[int64]int, categories map[int64]string) PreferenceTable {
	table := make(PreferenceTable)
	for uid, events := range m.Counts {
		cluster, ok := clusters[uid]
		if !ok {
			continue
		}
		for eid, n := range events {
			category := categories[eid]
			if category == "" {
				continue
			}
			weights, ok := table[cluster]
			if !ok {
				weights = make(map[string]float64)
				table[cluster] = weights
			}
			weights[category] += float64(n)
		}
	}
	return table
}

// RankCategories orders categories by weight descending, breaking ties by
// category name ascending.
func RankCategories(weights map[string]float64) []string {
	ranked := make([]string, 0, len(weights))
	for c := range weights {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		wi, wj := weights[ranked[i]], weights[ranked[j]]
		if wi != wj {
			return wi > wj
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// categoryIndex maps event ids to categories for a catalog.
func categoryIndex(catalog []CatalogEvent) map[int64]string {
	idx := make(map[int64]string, len(catalog))
	for _, ev := range catalog {
		if _, dup := idx[ev.ID]; !dup {
			idx[ev.ID] = ev.Category
		}
	}
	return idx
}
