// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/metrics"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestMemory(capacity int, ttl time.Duration) (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory(capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(10, time.Minute)

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v; want miss", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = ok %v, err %v; want hit", ok, err)
	}
	if string(got) != "v1" {
		t.Errorf("Get(k) = %q, want v1", got)
	}

	// Overwrite keeps a single entry.
	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ = c.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("Get(k) after overwrite = %q, want v2", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemory_ValueIsCopied(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(10, time.Minute)

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'z'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value changed with caller buffer: %q", got)
	}
	got[1] = 'z'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed with returned buffer: %q", again)
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(10, time.Minute)

	_ = c.Set(ctx, "default", []byte("x"), 0)
	_ = c.Set(ctx, "short", []byte("y"), 10*time.Second)

	clock.Advance(11 * time.Second)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("short entry should have expired")
	}
	if _, ok, _ := c.Get(ctx, "default"); !ok {
		t.Error("default entry should still be live")
	}

	clock.Advance(time.Minute)
	if _, ok, _ := c.Get(ctx, "default"); ok {
		t.Error("default entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after lazy expiry", c.Len())
	}
}

func TestMemory_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(3, time.Minute)

	before := testutil.ToFloat64(metrics.CacheEvictions.WithLabelValues(BackendMemory))

	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	// Touch "a" so "b" becomes the least recently used.
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatal("a should be present")
	}
	_ = c.Set(ctx, "d", []byte("d"), 0)

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("%s should be present", k)
		}
	}

	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
	after := testutil.ToFloat64(metrics.CacheEvictions.WithLabelValues(BackendMemory))
	if after-before != 1 {
		t.Errorf("eviction metric delta = %v, want 1", after-before)
	}
}

func TestMemory_DeleteAndPrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(100, time.Minute)

	keys := []string{
		"trending_movies_week_1", "trending_movies_day_2",
		"popular_movies_1", "movie_details_550",
	}
	for _, k := range keys {
		_ = c.Set(ctx, k, []byte("1"), 0)
	}

	if err := c.DeletePrefix(ctx, "trending_movies_"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	if err := c.Delete(ctx, "popular_movies_1", "never_set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "movie_details_550"); !ok {
		t.Error("movie_details_550 should survive")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemory_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(100, time.Hour)

	for i := 0; i < 5; i++ {
		_ = c.Set(ctx, fmt.Sprintf("short%d", i), []byte("x"), time.Second)
	}
	_ = c.Set(ctx, "long", []byte("x"), 0)

	clock.Advance(2 * time.Second)
	if removed := c.CleanupExpired(); removed != 5 {
		t.Errorf("CleanupExpired() = %d, want 5", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemory_Stats(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(10, time.Minute)

	hitsBefore := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(BackendMemory))
	missesBefore := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(BackendMemory))

	_ = c.Set(ctx, "k", []byte("v"), 0)
	c.Get(ctx, "k")
	c.Get(ctx, "k")
	c.Get(ctx, "nope")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Size != 1 || s.Capacity != 10 {
		t.Errorf("Stats() = %+v, want hits 2 misses 1 size 1 capacity 10", s)
	}
	if d := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(BackendMemory)) - hitsBefore; d != 2 {
		t.Errorf("hit metric delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(BackendMemory)) - missesBefore; d != 1 {
		t.Errorf("miss metric delta = %v, want 1", d)
	}
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(50, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%100)
				_ = c.Set(ctx, key, []byte("v"), 0)
				c.Get(ctx, key)
				if i%50 == 0 {
					_ = c.DeletePrefix(ctx, "k1")
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds capacity 50", c.Len())
	}
}

func TestNewMemory_Defaults(t *testing.T) {
	c := NewMemory(0, 0)
	if c.capacity != 10000 {
		t.Errorf("capacity = %d, want 10000", c.capacity)
	}
	if c.defaultTTL != 5*time.Minute {
		t.Errorf("defaultTTL = %v, want 5m", c.defaultTTL)
	}
}

type payload struct {
	ID    int      `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(10, time.Minute)

	want := payload{ID: 550, Title: "Fight Club", Tags: []string{"drama"}}
	if err := SetJSON(ctx, c, "movie", want, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	got, ok, err := GetJSON[payload](ctx, c, "movie")
	if err != nil || !ok {
		t.Fatalf("GetJSON = ok %v, err %v", ok, err)
	}
	if got.ID != want.ID || got.Title != want.Title || len(got.Tags) != 1 {
		t.Errorf("GetJSON = %+v, want %+v", got, want)
	}

	if _, ok, _ := GetJSON[payload](ctx, c, "absent"); ok {
		t.Error("GetJSON(absent) should miss")
	}
}

func TestGetJSON_UndecodableIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(10, time.Minute)

	_ = c.Set(ctx, "bad", []byte("{not json"), 0)

	_, ok, err := GetJSON[payload](ctx, c, "bad")
	if err != nil {
		t.Fatalf("GetJSON error = %v, want nil", err)
	}
	if ok {
		t.Error("undecodable value should be a miss")
	}
	if c.Len() != 0 {
		t.Error("undecodable value should be removed")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	b, err := New(ctx, &config.CacheConfig{Backend: "memory", Capacity: 5, DefaultTTL: time.Second})
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	if b.Name() != BackendMemory {
		t.Errorf("Name() = %q, want memory", b.Name())
	}

	if _, err := New(ctx, &config.CacheConfig{Backend: "memcached"}); err == nil {
		t.Error("New(memcached) should fail")
	}
	if _, err := New(ctx, &config.CacheConfig{Backend: "redis", RedisURL: "://bad"}); err == nil {
		t.Error("New(redis) with a bad URL should fail")
	}
}

func TestRedis_KeyPrefix(t *testing.T) {
	r := NewRedis(nil, "movie_rec", 0)
	if got := r.key("trending_movies_week_1"); got != "movie_rec:trending_movies_week_1" {
		t.Errorf("key() = %q", got)
	}
	if r.defaultTTL != 5*time.Minute {
		t.Errorf("defaultTTL = %v, want 5m", r.defaultTTL)
	}

	bare := NewRedis(nil, "", time.Minute)
	if got := bare.key("x"); got != "x" {
		t.Errorf("key() without prefix = %q, want x", got)
	}
}
