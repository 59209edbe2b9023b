// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package services

import (
	"context"
	"fmt"
)

// Scheduler is satisfied by *scheduler.Scheduler.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService starts the periodic task scheduler and stops it on
// shutdown, waiting for in-flight jobs.
type SchedulerService struct {
	scheduler Scheduler
	name      string
}

// NewSchedulerService wraps s.
func NewSchedulerService(s Scheduler) *SchedulerService {
	return &SchedulerService{scheduler: s, name: "scheduler"}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}
	<-ctx.Done()
	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *SchedulerService) String() string {
	return s.name
}
