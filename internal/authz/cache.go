// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package authz

import (
	"strings"
	"sync"
	"time"
)

// enforcementCache caches authorization decisions.
type enforcementCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]cacheItem
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	allowed   bool
	expiresAt time.Time
}

func newEnforcementCache(ttl time.Duration) *enforcementCache {
	c := &enforcementCache{
		ttl:      ttl,
		items:    make(map[string]cacheItem),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func cacheKey(subject, object, action string) string {
	return subject + "|" + object + "|" + action
}

func (c *enforcementCache) get(subject, object, action string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[cacheKey(subject, object, action)]
	if !ok || c.now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *enforcementCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[cacheKey(subject, object, action)] = cacheItem{
		allowed:   allowed,
		expiresAt: c.now().Add(c.ttl),
	}
	UpdateAuthzCacheSize(len(c.items))
}

// invalidateSubject drops every decision cached for subject.
func (c *enforcementCache) invalidateSubject(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := subject + "|"
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	UpdateAuthzCacheSize(len(c.items))
}

func (c *enforcementCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *enforcementCache) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
	UpdateAuthzCacheSize(len(c.items))
}

func (c *enforcementCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

// stop is idempotent.
func (c *enforcementCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
