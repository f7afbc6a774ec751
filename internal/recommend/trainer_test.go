// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func trainingCatalog(t *testing.T) []CatalogEvent {
	return []CatalogEvent{
		mustEvent(t, 1, "concerts"),
		mustEvent(t, 2, "concerts"),
		mustEvent(t, 3, "movies"),
		mustEvent(t, 4, "movies"),
		mustEvent(t, 5, "sport"),
		mustEvent(t, 6, "sport"),
	}
}

// seedClusters records two clearly separated groups of users: 1-3 click
// concerts, 4-6 click sport.
func seedClusters(m *mockInteractions) {
	for u := int64(1); u <= 3; u++ {
		m.click(uid(u), 1, time.Hour, 3)
		m.click(uid(u), 2, 2*time.Hour, 2)
	}
	for u := int64(4); u <= 6; u++ {
		m.click(uid(u), 5, time.Hour, 4)
		m.click(uid(u), 6, 3*time.Hour, 1)
	}
}

func TestTrain_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, trainingCatalog(t))
	seedClusters(env.clicks)
	// Outside the 30-day window: must not appear in the model
	env.clicks.click(uid(100), 3, 40*24*time.Hour, 5)
	// Anonymous clicks never form a user
	env.clicks.click(nil, 3, time.Hour, 5)

	res, err := env.engine.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s (%s), want success", res.Outcome, res.Reason)
	}
	if res.Users != 6 || res.Clusters != 3 {
		t.Errorf("Users = %d, Clusters = %d, want 6 and 3", res.Users, res.Clusters)
	}

	snap := env.engine.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() = nil after successful training")
	}
	model := snap.Model
	if len(model.UserClusters) != 6 {
		t.Errorf("len(UserClusters) = %d, want 6", len(model.UserClusters))
	}
	if _, ok := model.UserClusters[100]; ok {
		t.Error("user outside the training window was clustered")
	}
	for u, c := range model.UserClusters {
		if c < 0 || c >= model.K {
			t.Errorf("user %d in cluster %d, out of [0, %d)", u, c, model.K)
		}
	}
	if model.UserClusters[1] == model.UserClusters[4] {
		t.Error("concert and sport users share a cluster")
	}
	if !model.TrainedAt.Equal(testNow) {
		t.Errorf("TrainedAt = %v, want %v", model.TrainedAt, testNow)
	}

	concertCluster := model.UserClusters[1]
	if w := snap.Preferences[concertCluster]["concerts"]; w < 15 {
		t.Errorf("concert cluster weight = %v, want >= 15", w)
	}
	sportCluster := model.UserClusters[4]
	if w := snap.Preferences[sportCluster]["sport"]; w < 15 {
		t.Errorf("sport cluster weight = %v, want >= 15", w)
	}

	if env.store.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", env.store.saveCount())
	}
	if env.observer.trained.Load() != 1 {
		t.Error("observer should see the training run")
	}
	if st := env.engine.TrainingStatus(); st.LastOutcome != OutcomeSuccess || st.IsTraining || st.Runs != 1 {
		t.Errorf("TrainingStatus() = %+v", st)
	}
}

func TestTrain_SkipLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		users int64
	}{
		{name: "no clicks", users: 0},
		{name: "one user", users: 1},
		{name: "four users", users: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, trainingCatalog(t))
			previous := &Snapshot{
				Model:       &ClusterModel{K: 2, UserClusters: map[int64]int{42: 1}},
				Preferences: PreferenceTable{1: {"movies": 2}},
				Meta:        SnapshotMeta{Version: 3},
			}
			env.store.snap = previous
			env.engine.Restore(context.Background())

			for u := int64(1); u <= tt.users; u++ {
				env.clicks.click(uid(u), 1, time.Hour, 10)
			}

			res, err := env.engine.Train(context.Background())
			if err != nil {
				t.Fatalf("Train() error = %v", err)
			}
			if res.Outcome != OutcomeSkipped {
				t.Errorf("Outcome = %s, want skipped", res.Outcome)
			}
			if res.Reason == "" {
				t.Error("skipped result should carry a reason")
			}
			if env.store.saveCount() != 0 {
				t.Errorf("saves = %d, want 0", env.store.saveCount())
			}
			if env.engine.Snapshot() != previous {
				t.Error("skip replaced the published snapshot")
			}
		})
	}
}

func TestTrain_Failures(t *testing.T) {
	t.Parallel()

	t.Run("interaction store error", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, trainingCatalog(t))
		env.clicks.err = errors.New("database is locked")

		res, err := env.engine.Train(context.Background())
		if err == nil {
			t.Fatal("Train() expected error")
		}
		if res.Outcome != OutcomeFailed {
			t.Errorf("Outcome = %s, want failed", res.Outcome)
		}
		if st := env.engine.TrainingStatus(); st.LastError == "" {
			t.Error("TrainingStatus().LastError should be set")
		}
	})

	t.Run("save error keeps previous snapshot", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, trainingCatalog(t))
		seedClusters(env.clicks)
		env.store.saveErr = errors.New("disk full")

		res, err := env.engine.Train(context.Background())
		if err == nil {
			t.Fatal("Train() expected error")
		}
		if res.Outcome != OutcomeFailed {
			t.Errorf("Outcome = %s, want failed", res.Outcome)
		}
		if env.engine.Snapshot() != nil {
			t.Error("failed save must not publish a snapshot")
		}
	})

	t.Run("cancelled before commit", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, trainingCatalog(t))
		seedClusters(env.clicks)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := env.engine.Train(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Train() error = %v, want context.Canceled", err)
		}
		if env.store.saveCount() != 0 {
			t.Error("cancelled training must not save")
		}
	})
}

func TestTrain_ConcurrentRunsDoNotInterleave(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, trainingCatalog(t))
	seedClusters(env.clicks)
	env.store.saveWait = 20 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.engine.Train(context.Background()); err != nil {
				t.Errorf("Train() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := env.store.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent saves = %d, want 1", got)
	}
	if env.engine.Snapshot() == nil {
		t.Error("Snapshot() = nil after concurrent training")
	}
}

func TestTrain_Deterministic(t *testing.T) {
	t.Parallel()

	run := func() map[int64]int {
		env := newTestEnv(t, trainingCatalog(t))
		seedClusters(env.clicks)
		env.clicks.click(uid(7), 3, time.Hour, 2)
		env.clicks.click(uid(8), 4, time.Hour, 6)
		if _, err := env.engine.Train(context.Background()); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		return env.engine.Snapshot().Model.UserClusters
	}

	a, b := run(), run()
	for u, c := range a {
		if b[u] != c {
			t.Errorf("user %d: cluster %d vs %d across identical runs", u, c, b[u])
		}
	}
}
