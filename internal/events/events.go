// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topic names, before prefixing.
const (
	TopicInteractionTracked       = "interaction.tracked"
	TopicCatalogSynced            = "catalog.synced"
	TopicRecommendationsGenerated = "recommendations.generated"
)

// Topics lists every topic the Router consumes.
var Topics = []string{TopicInteractionTracked, TopicCatalogSynced, TopicRecommendationsGenerated}

// Event is the envelope serialized into every message payload.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	UserID     int64           `json:"user_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// InteractionPayload describes a tracked interaction.
type InteractionPayload struct {
	InteractionID   int64    `json:"interaction_id"`
	MovieID         int64    `json:"movie_id"`
	InteractionType string   `json:"interaction_type"`
	Value           *float64 `json:"value,omitempty"`
}

// CatalogSyncedPayload summarizes a sync run.
type CatalogSyncedPayload struct {
	Synced     int      `json:"synced"`
	Failed     int      `json:"failed"`
	Categories []string `json:"categories"`
	Pages      int      `json:"pages"`
}

// RecommendationsPayload summarizes a batch generation run.
type RecommendationsPayload struct {
	Users     int     `json:"users"`
	Generated int     `json:"generated"`
	UserIDs   []int64 `json:"user_ids,omitempty"`
}

// NewEvent builds an event with a fresh ID. payload may be nil.
func NewEvent(eventType string, userID int64, payload any) (*Event, error) {
	ev := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		ev.Payload = data
	}
	return ev, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Marshal serializes the event envelope.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEvent deserializes a message payload.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, fmt.Errorf("event missing id or type")
	}
	return &ev, nil
}
