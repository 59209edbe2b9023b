// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Transport names accepted in events.transport.
const (
	TransportChannel = "channel"
	TransportNATS    = "nats"
)

// Bus publishes and subscribes to domain events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[any]
	prefix     string
	logger     watermill.LoggerAdapter

	closers []func() error
	mu      sync.RWMutex
	closed  bool
}

// NewBus creates a bus for the configured transport.
func NewBus(cfg *config.EventsConfig) (*Bus, error) {
	logger := logging.NewWatermillLogger()
	b := &Bus{
		breaker: NewCircuitBreaker(DefaultBreakerConfig()),
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "."),
		logger:  logger,
	}

	switch strings.ToLower(cfg.Transport) {
	case "", TransportChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            max(cfg.BufferSize, 0),
			BlockPublishUntilSubscriberAck: false,
		}, logger)
		b.publisher, b.subscriber = ch, ch
		b.closers = []func() error{ch.Close}
	case TransportNATS:
		t, err := newNATSTransport(cfg, logger)
		if err != nil {
			return nil, err
		}
		b.publisher, b.subscriber = t.publisher, t.subscriber
		b.closers = t.closers
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}

	logging.Info().Str("transport", cfg.Transport).Str("prefix", b.prefix).Msg("Event bus ready")
	return b, nil
}

// newBusWith builds a bus over existing pub/sub, for tests.
func newBusWith(pub message.Publisher, sub message.Subscriber, prefix string) *Bus {
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		breaker:    NewCircuitBreaker(DefaultBreakerConfig()),
		prefix:     prefix,
		logger:     logging.NewWatermillLogger(),
	}
}

// Topic returns the full topic name for name.
func (b *Bus) Topic(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

// Publish sends ev on the named topic through the circuit breaker.
func (b *Bus) Publish(ctx context.Context, name string, ev *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := ev.Marshal()
	if err != nil {
		return err
	}
	msg := message.NewMessage(ev.ID, data)
	msg.Metadata.Set("type", ev.Type)
	if ev.UserID != 0 {
		msg.Metadata.Set("user_id", strconv.FormatInt(ev.UserID, 10))
	}
	if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
		msg.Metadata.Set("request_id", reqID)
	}
	msg.SetContext(ctx)

	topic := b.Topic(name)
	_, err = b.breaker.Execute(func() (any, error) {
		return nil, b.publisher.Publish(topic, msg)
	})
	EventsPublished.WithLabelValues(name, outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns messages for the named topic.
func (b *Bus) Subscribe(ctx context.Context, name string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.subscriber.Subscribe(ctx, b.Topic(name))
}

// Subscriber exposes the underlying subscriber for the Router.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// BreakerState reports the publish breaker state.
func (b *Bus) BreakerState() string {
	return b.breaker.State().String()
}

// Close shuts down the transport. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishInteraction announces a tracked interaction.
func (b *Bus) PublishInteraction(ctx context.Context, in *models.Interaction) error {
	ev, err := NewEvent(TopicInteractionTracked, in.UserID, InteractionPayload{
		InteractionID:   in.ID,
		MovieID:         in.MovieID,
		InteractionType: string(in.Type),
		Value:           in.Value,
	})
	if err != nil {
		return err
	}
	return b.Publish(ctx, TopicInteractionTracked, ev)
}

// PublishCatalogSynced announces a finished sync run.
func (b *Bus) PublishCatalogSynced(ctx context.Context, p CatalogSyncedPayload) error {
	ev, err := NewEvent(TopicCatalogSynced, 0, p)
	if err != nil {
		return err
	}
	return b.Publish(ctx, TopicCatalogSynced, ev)
}

// PublishRecommendationsGenerated announces a finished batch generation run.
func (b *Bus) PublishRecommendationsGenerated(ctx context.Context, p RecommendationsPayload) error {
	ev, err := NewEvent(TopicRecommendationsGenerated, 0, p)
	if err != nil {
		return err
	}
	return b.Publish(ctx, TopicRecommendationsGenerated, ev)
}
