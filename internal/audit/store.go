// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package audit

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Data is lost on restart.
type MemoryStore struct {
	events []Event
	mu     sync.RWMutex
	maxLen int
}

// NewMemoryStore creates a store holding at most maxLen events.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		events: make([]Event, 0, min(maxLen, 1024)),
		maxLen: maxLen,
	}
}

// Save appends an event, dropping the oldest tenth when full.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		drop := max(s.maxLen/10, 1)
		s.events = s.events[drop:]
	}
	s.events = append(s.events, *event)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.limit()
	skipped := 0
	var results []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if !matches(&s.events[i], &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, s.events[i])
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func matches(event *Event, filter *QueryFilter) bool {
	if len(filter.Types) > 0 && !slices.Contains(filter.Types, event.Type) {
		return false
	}
	if filter.Outcome != "" && event.Outcome != filter.Outcome {
		return false
	}
	if filter.UserID != 0 && event.UserID != filter.UserID {
		return false
	}
	if filter.IPAddress != "" && event.IPAddress != filter.IPAddress {
		return false
	}
	if filter.Since != nil && event.Timestamp.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Timestamp.After(*filter.Until) {
		return false
	}
	return true
}

// Count returns the number of matching events.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.events {
		if matches(&s.events[i], &filter) {
			n++
		}
	}
	return n, nil
}

// Delete removes events older than olderThan.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.events)
	s.events = slices.DeleteFunc(s.events, func(e Event) bool {
		return e.Timestamp.Before(olderThan)
	})
	return int64(before - len(s.events)), nil
}

// Stats summarizes the stored events.
func (s *MemoryStore) Stats(context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalEvents:     int64(len(s.events)),
		EventsByType:    make(map[string]int64),
		EventsByOutcome: make(map[string]int64),
	}
	for i := range s.events {
		e := &s.events[i]
		stats.EventsByType[string(e.Type)]++
		stats.EventsByOutcome[string(e.Outcome)]++

		if stats.OldestEvent == nil || e.Timestamp.Before(*stats.OldestEvent) {
			t := e.Timestamp
			stats.OldestEvent = &t
		}
		if stats.NewestEvent == nil || e.Timestamp.After(*stats.NewestEvent) {
			t := e.Timestamp
			stats.NewestEvent = &t
		}
	}
	return stats, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
