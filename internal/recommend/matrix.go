// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"sort"
)

// InteractionMatrix is a dense user-by-event click count matrix.
// Rows[i] belongs to UserIDs[i]; column j counts clicks on EventIDs[j].
type InteractionMatrix struct {
	UserIDs  []int64
	EventIDs []int64
	Rows     [][]float64

	// Counts is the sparse form of Rows, keyed by user then event.
	Counts map[int64]map[int64]int

	// Clicks is the number of non-anonymous clicks that contributed.
	Clicks int
}

// BuildMatrix builds the interaction matrix from a window of clicks.
// Views and anonymous clicks are ignored. It returns ErrInsufficientData
// when no user or no event remains.
func BuildMatrix(interactions []Interaction) (*InteractionMatrix, error) {
	counts := make(map[int64]map[int64]int)
	eventSet := make(map[int64]struct{})
	clicks := 0

	for _, in := range interactions {
		if in.Kind != KindClick || in.UserID == nil {
			continue
		}
		uid := *in.UserID
		row, ok := counts[uid]
		if !ok {
			row = make(map[int64]int)
			counts[uid] = row
		}
		row[in.EventID]++
		eventSet[in.EventID] = struct{}{}
		clicks++
	}

	if len(counts) == 0 || len(eventSet) == 0 {
		return nil, ErrInsufficientData
	}

	userIDs := make([]int64, 0, len(counts))
	for uid := range counts {
		userIDs = append(userIDs, uid)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	eventIDs := make([]int64, 0, len(eventSet))
	for eid := range eventSet {
		eventIDs = append(eventIDs, eid)
	}
	sort.Slice(eventIDs, func(i, j int) bool { return eventIDs[i] < eventIDs[j] })

	column := make(map[int64]int, len(eventIDs))
	for j, eid := range eventIDs {
		column[eid] = j
	}

	rows := make([][]float64, len(userIDs))
	for i, uid := range userIDs {
		row := make([]float64, len(eventIDs))
		for eid, n := range counts[uid] {
			row[column[eid]] = float64(n)
		}
		rows[i] = row
	}

	return &InteractionMatrix{
		UserIDs:  userIDs,
		EventIDs: eventIDs,
		Rows:     rows,
		Counts:   counts,
		Clicks:   clicks,
	}, nil
}
