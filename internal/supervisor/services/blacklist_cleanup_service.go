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

// Cleaner is satisfied by every auth.Blacklist.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// BlacklistCleanupService periodically purges expired revoked-token
// entries. For the badger blacklist this also runs value log GC.
type BlacklistCleanupService struct {
	cleaner  Cleaner
	interval time.Duration
	clock    clockwork.Clock
	logger   zerolog.Logger
	name     string
}

// NewBlacklistCleanupService creates the service. interval <= 0 means 1h.
func NewBlacklistCleanupService(c Cleaner, interval time.Duration, logger zerolog.Logger) *BlacklistCleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &BlacklistCleanupService{
		cleaner:  c,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		logger:   logger.With().Str("service", "blacklist-cleanup").Logger(),
		name:     "blacklist-cleanup",
	}
}

// WithClock replaces the ticker clock.
func (s *BlacklistCleanupService) WithClock(c clockwork.Clock) *BlacklistCleanupService {
	s.clock = c
	return s
}

// Serve implements suture.Service.
func (s *BlacklistCleanupService) Serve(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			n, err := s.cleaner.CleanupExpired(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("blacklist cleanup failed")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("removed", n).Msg("removed expired blacklist entries")
			}
		}
	}
}

func (s *BlacklistCleanupService) String() string {
	return s.name
}
