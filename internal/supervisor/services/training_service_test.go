// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/marquee/internal/recommend"
)

var _ suture.Service = (*TrainingService)(nil)

// mockTrainer counts training runs.
type mockTrainer struct {
	mu       sync.Mutex
	calls    int
	result   *recommend.TrainResult
	err      error
	delay    time.Duration
	deadline bool
}

func (m *mockTrainer) Train(ctx context.Context) (*recommend.TrainResult, error) {
	m.mu.Lock()
	m.calls++
	_, m.deadline = ctx.Deadline()
	res, err, delay := m.result, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return &recommend.TrainResult{Outcome: recommend.OutcomeFailed}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if res == nil {
		res = &recommend.TrainResult{Outcome: recommend.OutcomeSuccess, Users: 6, Clusters: 3, Version: 1}
	}
	return res, err
}

func (m *mockTrainer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runFor(svc *TrainingService, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Serve(ctx)
}

func TestTrainingService_String(t *testing.T) {
	t.Parallel()

	svc := NewTrainingService(&mockTrainer{}, TrainingServiceConfig{}, zerolog.Nop())
	if got := svc.String(); got != "training-service" {
		t.Errorf("String() = %q", got)
	}
	if svc.config.TrainTimeout != defaultTrainTimeout {
		t.Errorf("TrainTimeout = %v, want default", svc.config.TrainTimeout)
	}
}

func TestTrainingService_Schedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      TrainingServiceConfig
		run      time.Duration
		minCalls int
		maxCalls int
	}{
		{name: "startup only", cfg: TrainingServiceConfig{TrainOnStartup: true}, run: 150 * time.Millisecond, minCalls: 1, maxCalls: 1},
		{name: "disabled", cfg: TrainingServiceConfig{}, run: 100 * time.Millisecond, minCalls: 0, maxCalls: 0},
		{name: "long interval", cfg: TrainingServiceConfig{TrainInterval: time.Hour}, run: 100 * time.Millisecond, minCalls: 0, maxCalls: 0},
		{name: "periodic", cfg: TrainingServiceConfig{TrainInterval: 40 * time.Millisecond}, run: 190 * time.Millisecond, minCalls: 2, maxCalls: 5},
		{name: "startup and periodic", cfg: TrainingServiceConfig{TrainOnStartup: true, TrainInterval: 40 * time.Millisecond}, run: 190 * time.Millisecond, minCalls: 3, maxCalls: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trainer := &mockTrainer{}
			err := runFor(NewTrainingService(trainer, tt.cfg, zerolog.Nop()), tt.run)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
			}
			if got := trainer.callCount(); got < tt.minCalls || got > tt.maxCalls {
				t.Errorf("Train() called %d times, want %d..%d", got, tt.minCalls, tt.maxCalls)
			}
		})
	}
}

func TestTrainingService_FailureKeepsRunning(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	trainer := &mockTrainer{err: errors.New("load clicks: database is locked")}
	svc := NewTrainingService(trainer, TrainingServiceConfig{
		TrainOnStartup: true,
		TrainInterval:  30 * time.Millisecond,
	}, zerolog.New(logs))

	if err := runFor(svc, 150*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v", err)
	}
	if trainer.callCount() < 2 {
		t.Errorf("Train() called %d times, want retries after failure", trainer.callCount())
	}
	if !strings.Contains(logs.String(), "training failed") {
		t.Errorf("failure not logged: %s", logs.String())
	}
}

func TestTrainingService_LogsSkippedRuns(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	trainer := &mockTrainer{result: &recommend.TrainResult{
		Outcome: recommend.OutcomeSkipped,
		Reason:  "need at least 5 users, have 3",
	}}
	svc := NewTrainingService(trainer, TrainingServiceConfig{TrainOnStartup: true}, zerolog.New(logs))

	_ = runFor(svc, 50*time.Millisecond)

	out := logs.String()
	if !strings.Contains(out, "training skipped") || !strings.Contains(out, "need at least 5 users") {
		t.Errorf("skip not logged with reason: %s", out)
	}
}

func TestTrainingService_RunHasDeadline(t *testing.T) {
	t.Parallel()

	trainer := &mockTrainer{}
	svc := NewTrainingService(trainer, TrainingServiceConfig{TrainOnStartup: true, TrainTimeout: time.Minute}, zerolog.Nop())
	_ = runFor(svc, 50*time.Millisecond)

	trainer.mu.Lock()
	defer trainer.mu.Unlock()
	if !trainer.deadline {
		t.Error("training context has no deadline")
	}
}

func TestTrainingService_ShutdownInterruptsRun(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	trainer := &mockTrainer{delay: time.Minute}
	svc := NewTrainingService(trainer, TrainingServiceConfig{TrainOnStartup: true}, zerolog.New(logs))

	start := time.Now()
	_ = runFor(svc, 80*time.Millisecond)

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("shutdown took %v", elapsed)
	}
	if !strings.Contains(logs.String(), "interrupted by shutdown") {
		t.Errorf("interruption not logged: %s", logs.String())
	}
}
