// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/reelmatch/internal/metrics"
)

// memoryEntry is a node in the LRU list.
type memoryEntry struct {
	key       string
	value     []byte
	prev      *memoryEntry
	next      *memoryEntry
	expiresAt time.Time
}

// Memory implements Backend as a thread-safe LRU cache with per-entry TTL.
//
// A doubly-linked list orders entries by recency and a map gives O(1) lookup,
// so Get, Set and eviction are all O(1). Expiry is lazy: expired entries are
// dropped when read, evicted, or swept by CleanupExpired.
type Memory struct {
	mu sync.Mutex

	capacity   int
	defaultTTL time.Duration

	items map[string]*memoryEntry

	// head.next is the most recently used, tail.prev the least.
	head *memoryEntry
	tail *memoryEntry

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time
}

// NewMemory creates an in-process LRU backend.
func NewMemory(capacity int, defaultTTL time.Duration) *Memory {
	if capacity <= 0 {
		capacity = 10000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	c := &Memory{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*memoryEntry, capacity),
		head:       &memoryEntry{},
		tail:       &memoryEntry{},
		now:        time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Name returns "memory".
func (c *Memory) Name() string { return BackendMemory }

// Ping always succeeds.
func (c *Memory) Ping(context.Context) error { return nil }

// Get returns a copy of the stored bytes.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		c.misses++
		metrics.RecordCacheLookup(BackendMemory, false)
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.removeEntry(entry)
		c.misses++
		metrics.RecordCacheLookup(BackendMemory, false)
		return nil, false, nil
	}

	c.moveToFront(entry)
	c.hits++
	metrics.RecordCacheLookup(BackendMemory, true)

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

// Set stores a copy of value, evicting the least recently used entry when the
// cache is full.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if entry, exists := c.items[key]; exists {
		entry.value = stored
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		return nil
	}

	entry := &memoryEntry{key: key, value: stored, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
	return nil
}

// Delete removes keys.
func (c *Memory) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if entry, exists := c.items[key]; exists {
			c.removeEntry(entry)
		}
	}
	return nil
}

// DeletePrefix removes every key starting with prefix. O(n).
func (c *Memory) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(entry)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired removes all expired entries and returns how many it removed.
func (c *Memory) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			c.removeEntry(entry)
			removed++
		}
		entry = prev
	}
	return removed
}

// MemoryStats is a snapshot of the cache counters.
type MemoryStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

// Stats returns hit, miss and eviction counters.
func (c *Memory) Stats() MemoryStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return MemoryStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.items),
		Capacity:  c.capacity,
	}
}

// Internal methods (must be called with lock held)

func (c *Memory) addToFront(entry *memoryEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Memory) moveToFront(entry *memoryEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *Memory) removeEntry(entry *memoryEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *Memory) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	c.evictions++
	metrics.CacheEvictions.WithLabelValues(BackendMemory).Inc()
}

var _ Backend = (*Memory)(nil)
