// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package services

import (
	"context"
	"fmt"
)

// EventRouter is satisfied by *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService runs the watermill router that fans domain events out
// to cache invalidation and websocket clients.
type EventRouterService struct {
	router EventRouter
	name   string
}

// NewEventRouterService wraps router.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{router: router, name: "event-router"}
}

// Serve implements suture.Service. A router that stops while ctx is still
// live is reported as a failure so suture restarts it.
func (s *EventRouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event router stopped: %w", err)
	}
	return fmt.Errorf("event router stopped unexpectedly")
}

func (s *EventRouterService) String() string {
	return s.name
}
