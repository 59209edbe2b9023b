// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Trainer rebuilds the recommendation model. *recommend.Engine implements it.
type Trainer interface {
	Train(ctx context.Context) error
}

// RecommendServiceConfig controls training cadence.
type RecommendServiceConfig struct {
	TrainOnStartup bool
	// TrainInterval <= 0 means 24h.
	TrainInterval time.Duration
	// TrainTimeout <= 0 means 30m.
	TrainTimeout time.Duration
}

// RecommendService trains the engine on start and then periodically.
// Training failures are logged and never stop the service.
type RecommendService struct {
	engine Trainer
	config RecommendServiceConfig
	clock  clockwork.Clock
	logger zerolog.Logger
	name   string
}

// NewRecommendService creates the service.
func NewRecommendService(engine Trainer, cfg RecommendServiceConfig, logger zerolog.Logger) *RecommendService {
	if cfg.TrainInterval <= 0 {
		cfg.TrainInterval = 24 * time.Hour
	}
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 30 * time.Minute
	}
	return &RecommendService{
		engine: engine,
		config: cfg,
		clock:  clockwork.NewRealClock(),
		logger: logger.With().Str("service", "recommend").Logger(),
		name:   "recommend-service",
	}
}

// WithClock replaces the ticker clock.
func (s *RecommendService) WithClock(c clockwork.Clock) *RecommendService {
	s.clock = c
	return s
}

// Serve implements suture.Service.
func (s *RecommendService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("recommendation service starting")

	if s.config.TrainOnStartup {
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial training failed (will retry on schedule)")
		}
	}

	ticker := s.clock.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("recommendation service shutting down")
			return ctx.Err()
		case <-ticker.Chan():
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

func (s *RecommendService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, s.config.TrainTimeout)
	defer cancel()

	start := s.clock.Now()
	if err := s.engine.Train(trainCtx); err != nil {
		return err
	}
	s.logger.Info().Dur("duration", s.clock.Since(start)).Msg("model training complete")
	return nil
}

func (s *RecommendService) String() string {
	return s.name
}
