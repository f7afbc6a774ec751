// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/recommend"
)

const defaultTrainTimeout = 30 * time.Minute

// Trainer runs one training cycle. *recommend.Engine implements it.
type Trainer interface {
	Train(ctx context.Context) (*recommend.TrainResult, error)
}

// TrainingServiceConfig holds configuration for the training service.
type TrainingServiceConfig struct {
	// TrainOnStartup runs a training cycle as soon as the service starts.
	TrainOnStartup bool

	// TrainInterval is the period between scheduled runs. Zero disables
	// scheduled training.
	TrainInterval time.Duration

	// TrainTimeout bounds a single run. Default: 30m
	TrainTimeout time.Duration
}

// TrainingService keeps the cluster model fresh under supervision.
// A failed run is logged and retried at the next tick; the service itself
// only returns when its context is cancelled.
type TrainingService struct {
	trainer Trainer
	config  TrainingServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewTrainingService creates a new training service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(trainer Trainer, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = defaultTrainTimeout
	}
	return &TrainingService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "training").Logger(),
		name:    "training-service",
	}
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("training service starting")

	if s.config.TrainOnStartup {
		s.train(ctx, "startup")
	}

	if s.config.TrainInterval <= 0 {
		<-ctx.Done()
		s.logger.Info().Msg("training service shutting down")
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.train(ctx, "schedule")
		}
	}
}

// train runs one cycle. Errors are logged, never returned.
func (s *TrainingService) train(ctx context.Context, trigger string) {
	trainCtx, cancel := context.WithTimeout(ctx, s.config.TrainTimeout)
	defer cancel()

	logger := s.logger.With().Str("trigger", trigger).Logger()
	res, err := s.trainer.Train(trainCtx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info().Err(err).Msg("training interrupted by shutdown")
			return
		}
		logger.Error().Err(err).Msg("training failed, keeping the previous model")
		return
	}

	switch res.Outcome {
	case recommend.OutcomeSuccess:
		logger.Info().
			Int("users", res.Users).
			Int("clusters", res.Clusters).
			Int64("version", res.Version).
			Dur("duration", res.Duration).
			Msg("training complete")
	default:
		logger.Info().
			Str("outcome", string(res.Outcome)).
			Str("reason", res.Reason).
			Msg("training skipped")
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *TrainingService) String() string {
	return s.name
}
