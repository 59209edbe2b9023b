// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// Websocket message types pushed by the Router.
const (
	MessageCatalogSynced        = "catalog_synced"
	MessageRecommendationsReady = "recommendations_ready"
)

// Invalidator drops a user's cached recommendations.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// Broadcaster pushes messages to websocket clients.
type Broadcaster interface {
	Broadcast(messageType string, data any)
	SendToUser(userID int64, messageType string, data any)
}

// RouterConfig holds retry settings for handlers.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
	}
}

// Router dispatches bus messages to their handlers.
type Router struct {
	router      *message.Router
	invalidator Invalidator
	broadcaster Broadcaster
}

// NewRouter wires the interaction, catalog, and recommendation handlers.
// invalidator and broadcaster may be nil.
func NewRouter(bus *Bus, cfg RouterConfig, invalidator Invalidator, broadcaster Broadcaster) (*Router, error) {
	wm, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wm.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      2,
		Logger:          bus.logger,
	}
	wm.AddMiddleware(retry.Middleware)

	r := &Router{router: wm, invalidator: invalidator, broadcaster: broadcaster}
	handlers := map[string]func(context.Context, *Event) error{
		TopicInteractionTracked:       r.handleInteraction,
		TopicCatalogSynced:            r.handleCatalogSynced,
		TopicRecommendationsGenerated: r.handleRecommendations,
	}
	for _, name := range Topics {
		wm.AddConsumerHandler(name+"-handler", bus.Topic(name), bus.Subscriber(), wrap(name, handlers[name]))
	}
	return r, nil
}

// wrap decodes the envelope and records handler metrics. Malformed
// payloads are acked and dropped.
func wrap(name string, fn func(context.Context, *Event) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ev, err := ParseEvent(msg.Payload)
		if err != nil {
			logging.Warn().Err(err).Str("topic", name).Str("message_uuid", msg.UUID).Msg("Dropping malformed event")
			EventsHandled.WithLabelValues(name, "malformed").Inc()
			return nil
		}
		err = fn(msg.Context(), ev)
		EventsHandled.WithLabelValues(name, outcome(err)).Inc()
		return err
	}
}

func (r *Router) handleInteraction(ctx context.Context, ev *Event) error {
	var p InteractionPayload
	if err := ev.Decode(&p); err != nil {
		logging.Warn().Err(err).Str("event_id", ev.ID).Msg("Dropping interaction event")
		return nil
	}
	InteractionsByType.WithLabelValues(p.InteractionType).Inc()

	if r.invalidator == nil || ev.UserID == 0 {
		return nil
	}
	if err := r.invalidator.InvalidateUser(ctx, ev.UserID); err != nil {
		return fmt.Errorf("invalidate user %d: %w", ev.UserID, err)
	}
	logging.Debug().Int64("user_id", ev.UserID).Int64("movie_id", p.MovieID).
		Str("interaction_type", p.InteractionType).Msg("Invalidated recommendations after interaction")
	return nil
}

func (r *Router) handleCatalogSynced(_ context.Context, ev *Event) error {
	var p CatalogSyncedPayload
	if err := ev.Decode(&p); err != nil {
		logging.Warn().Err(err).Str("event_id", ev.ID).Msg("Dropping catalog event")
		return nil
	}
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(MessageCatalogSynced, p)
	}
	return nil
}

func (r *Router) handleRecommendations(_ context.Context, ev *Event) error {
	var p RecommendationsPayload
	if err := ev.Decode(&p); err != nil {
		logging.Warn().Err(err).Str("event_id", ev.ID).Msg("Dropping recommendations event")
		return nil
	}
	if r.broadcaster == nil {
		return nil
	}
	for _, uid := range p.UserIDs {
		r.broadcaster.SendToUser(uid, MessageRecommendationsReady, map[string]any{"user_id": uid})
	}
	return nil
}

// Run blocks until ctx is canceled or the router fails.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router is running.
func (r *Router) IsRunning() bool {
	return r.router.IsRunning()
}

// Close stops the router and waits for handlers.
func (r *Router) Close() error {
	return r.router.Close()
}
