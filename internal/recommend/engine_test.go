// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockAlgorithm returns canned items and records the limits it was asked for.
type mockAlgorithm struct {
	name    string
	items   []ScoredMovie
	err     error
	trained bool

	trainErr   error
	trainCalls atomic.Int32
	trainDelay time.Duration

	mu     sync.Mutex
	limits []int
}

func (m *mockAlgorithm) Name() string { return m.name }

func (m *mockAlgorithm) Train(ctx context.Context, _ *TrainingData) error {
	m.trainCalls.Add(1)
	if m.trainDelay > 0 {
		select {
		case <-time.After(m.trainDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.trainErr != nil {
		return m.trainErr
	}
	m.trained = true
	return nil
}

func (m *mockAlgorithm) Recommend(_ context.Context, _ *Profile, limit int) ([]ScoredMovie, error) {
	m.mu.Lock()
	m.limits = append(m.limits, limit)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]ScoredMovie, 0, limit)
	for _, it := range m.items {
		if len(out) == limit {
			break
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *mockAlgorithm) IsTrained() bool          { return m.trained }
func (m *mockAlgorithm) Version() int             { return 1 }
func (m *mockAlgorithm) LastTrainedAt() time.Time { return time.Time{} }

func (m *mockAlgorithm) lastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.limits) == 0 {
		return -1
	}
	return m.limits[len(m.limits)-1]
}

type mockProvider struct {
	data     *TrainingData
	dataErr  error
	profiles map[int64]*Profile
	loads    atomic.Int32
}

func (p *mockProvider) LoadTrainingData(context.Context) (*TrainingData, error) {
	if p.dataErr != nil {
		return nil, p.dataErr
	}
	return p.data, nil
}

func (p *mockProvider) LoadProfile(_ context.Context, userID int64) (*Profile, error) {
	p.loads.Add(1)
	if prof, ok := p.profiles[userID]; ok {
		return prof, nil
	}
	return NewProfile(userID, nil, nil, nil), nil
}

func ratingsMap(n int) map[int64]float64 {
	out := make(map[int64]float64, n)
	for i := 0; i < n; i++ {
		out[int64(1000+i)] = 4
	}
	return out
}

func newTestEngine(t *testing.T, algs ...Algorithm) (*Engine, *mockProvider) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Weights = Weights{Collaborative: 1, Content: 1, Popularity: 1}
	e, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	p := &mockProvider{
		data:     &TrainingData{Movies: []MovieFeatures{{ID: 1}}},
		profiles: map[int64]*Profile{},
	}
	e.SetDataProvider(p)
	for _, a := range algs {
		e.RegisterAlgorithm(a)
	}
	return e, p
}

func TestEngine_HybridMix(t *testing.T) {
	collab := &mockAlgorithm{name: AlgorithmCollaborative, trained: true, items: []ScoredMovie{
		{MovieID: 1, Score: 4.5, Reason: "collab"},
		{MovieID: 2, Score: 4.0, Reason: "collab"},
		{MovieID: 9, Score: 3.0, Reason: "collab"},
	}}
	content := &mockAlgorithm{name: AlgorithmContent, trained: true, items: []ScoredMovie{
		{MovieID: 2, Score: 0.9, Reason: "content"},
		{MovieID: 3, Score: 0.8, Reason: "content"},
	}}
	pop := &mockAlgorithm{name: AlgorithmPopularity, trained: true, items: []ScoredMovie{
		{MovieID: 4, Score: 0.7, Reason: "pop"},
		{MovieID: 5, Score: 0.6, Reason: "pop"},
		{MovieID: 6, Score: 0.5, Reason: "pop"},
	}}
	e, p := newTestEngine(t, collab, content, pop)
	p.profiles[7] = NewProfile(7, []string{"Action"}, ratingsMap(5), nil)

	resp, err := e.Recommend(context.Background(), Request{UserID: 7, Limit: 4})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if got := collab.lastLimit(); got != 2 {
		t.Errorf("collaborative limit = %d, want 2", got)
	}
	if got := content.lastLimit(); got != 2 {
		t.Errorf("content limit = %d, want 2", got)
	}
	// collab 2 + content 2 = 4 raw items, so popularity is not consulted.
	if got := pop.lastLimit(); got != -1 {
		t.Errorf("popularity should not run, got limit %d", got)
	}

	wantIDs := []int64{1, 2, 3}
	if len(resp.Items) != len(wantIDs) {
		t.Fatalf("got %d items, want %d: %+v", len(resp.Items), len(wantIDs), resp.Items)
	}
	for i, id := range wantIDs {
		if resp.Items[i].MovieID != id {
			t.Errorf("item %d = movie %d, want %d", i, resp.Items[i].MovieID, id)
		}
	}
	// Duplicate movie 2 keeps the max score and the first reason.
	if resp.Items[1].Score != 4.0 || resp.Items[1].Reason != "collab" {
		t.Errorf("merged item = %+v, want score 4.0 reason collab", resp.Items[1])
	}
	if resp.Metadata.Algorithm != "hybrid" {
		t.Errorf("Algorithm = %q, want hybrid", resp.Metadata.Algorithm)
	}
}

func TestEngine_CollaborativeGate(t *testing.T) {
	collab := &mockAlgorithm{name: AlgorithmCollaborative, trained: true, items: []ScoredMovie{{MovieID: 1, Score: 5}}}
	content := &mockAlgorithm{name: AlgorithmContent, trained: true}
	pop := &mockAlgorithm{name: AlgorithmPopularity, trained: true, items: []ScoredMovie{
		{MovieID: 4, Score: 0.7}, {MovieID: 5, Score: 0.6},
	}}
	e, p := newTestEngine(t, collab, content, pop)
	p.profiles[1] = NewProfile(1, nil, ratingsMap(4), nil)

	resp, err := e.Recommend(context.Background(), Request{UserID: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := collab.lastLimit(); got != -1 {
		t.Errorf("collaborative ran with 4 ratings (limit %d)", got)
	}
	if got := pop.lastLimit(); got != 10 {
		t.Errorf("popularity fill limit = %d, want 10", got)
	}
	if len(resp.Items) != 2 {
		t.Errorf("got %d items, want 2", len(resp.Items))
	}
	if len(resp.Metadata.AlgorithmsUsed) != 1 || resp.Metadata.AlgorithmsUsed[0] != AlgorithmPopularity {
		t.Errorf("AlgorithmsUsed = %v, want [popularity]", resp.Metadata.AlgorithmsUsed)
	}
}

func TestEngine_WeightsApplied(t *testing.T) {
	content := &mockAlgorithm{name: AlgorithmContent, trained: true, items: []ScoredMovie{{MovieID: 1, Score: 0.5}}}
	cfg := DefaultConfig()
	e, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	e.SetDataProvider(&mockProvider{profiles: map[int64]*Profile{}})
	e.RegisterAlgorithm(content)

	resp, err := e.Recommend(context.Background(), Request{UserID: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(resp.Items))
	}
	if got, want := resp.Items[0].Score, 0.5*0.4; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
	if resp.Items[0].Source != AlgorithmContent {
		t.Errorf("Source = %q, want content", resp.Items[0].Source)
	}
}

func TestEngine_AlgorithmFailureSkipped(t *testing.T) {
	content := &mockAlgorithm{name: AlgorithmContent, trained: true, err: errors.New("boom")}
	pop := &mockAlgorithm{name: AlgorithmPopularity, trained: true, items: []ScoredMovie{{MovieID: 8, Score: 0.9}}}
	untrained := &mockAlgorithm{name: AlgorithmCollaborative, items: []ScoredMovie{{MovieID: 1, Score: 5}}}
	e, p := newTestEngine(t, untrained, content, pop)
	p.profiles[1] = NewProfile(1, nil, ratingsMap(10), nil)

	resp, err := e.Recommend(context.Background(), Request{UserID: 1, Limit: 4})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].MovieID != 8 {
		t.Errorf("items = %+v, want only movie 8", resp.Items)
	}
	if untrained.lastLimit() != -1 {
		t.Error("untrained algorithm should not be called")
	}
}

func TestEngine_Errors(t *testing.T) {
	e, err := NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Recommend(context.Background(), Request{UserID: 1}); !errors.Is(err, ErrNoDataProvider) {
		t.Errorf("Recommend without provider = %v, want ErrNoDataProvider", err)
	}
	if err := e.Train(context.Background()); !errors.Is(err, ErrNoDataProvider) {
		t.Errorf("Train without provider = %v, want ErrNoDataProvider", err)
	}

	e.SetDataProvider(&mockProvider{})
	if _, err := e.Recommend(context.Background(), Request{UserID: 1}); !errors.Is(err, ErrNoAlgorithms) {
		t.Errorf("Recommend without algorithms = %v, want ErrNoAlgorithms", err)
	}
	if got := e.Status().ErrorCount; got != 2 {
		t.Errorf("ErrorCount = %d, want 2", got)
	}
}

func TestEngine_LimitDefaults(t *testing.T) {
	content := &mockAlgorithm{name: AlgorithmContent, trained: true}
	e, _ := newTestEngine(t, content)

	if _, err := e.Recommend(context.Background(), Request{UserID: 1}); err != nil {
		t.Fatal(err)
	}
	if got := content.lastLimit(); got != 10 {
		t.Errorf("default limit/2 = %d, want 10", got)
	}
	if _, err := e.Recommend(context.Background(), Request{UserID: 2, Limit: 1000}); err != nil {
		t.Fatal(err)
	}
	if got := content.lastLimit(); got != 50 {
		t.Errorf("capped limit/2 = %d, want 50", got)
	}
}

func TestEngine_CacheAndInvalidate(t *testing.T) {
	content := &mockAlgorithm{name: AlgorithmContent, trained: true, items: []ScoredMovie{{MovieID: 1, Score: 0.5}}}
	e, p := newTestEngine(t, content)
	ctx := context.Background()

	first, err := e.Recommend(ctx, Request{UserID: 3, Limit: 4})
	if err != nil {
		t.Fatal(err)
	}
	if first.Metadata.Cached {
		t.Error("first response should not be cached")
	}

	second, _ := e.Recommend(ctx, Request{UserID: 3, Limit: 4})
	if !second.Metadata.Cached {
		t.Error("second response should come from cache")
	}
	if p.loads.Load() != 1 {
		t.Errorf("profile loads = %d, want 1", p.loads.Load())
	}

	e.InvalidateUser(3)
	third, _ := e.Recommend(ctx, Request{UserID: 3, Limit: 4})
	if third.Metadata.Cached {
		t.Error("response after InvalidateUser should not be cached")
	}

	s := e.Status()
	if s.CacheHits != 1 || s.CacheMisses != 2 || s.RequestCount != 3 {
		t.Errorf("Status counters = hits %d misses %d requests %d", s.CacheHits, s.CacheMisses, s.RequestCount)
	}
}

func TestEngine_Train(t *testing.T) {
	good := &mockAlgorithm{name: AlgorithmContent}
	bad := &mockAlgorithm{name: AlgorithmPopularity, trainErr: errors.New("bad data")}
	e, p := newTestEngine(t, good, bad)
	p.data = &TrainingData{
		Ratings: []Rating{{UserID: 1, MovieID: 1, Value: 4}, {UserID: 2, MovieID: 1, Value: 3}},
		Movies:  []MovieFeatures{{ID: 1}},
	}

	if e.IsTrained() {
		t.Fatal("engine should start untrained")
	}
	if err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !e.IsTrained() {
		t.Error("engine should be trained")
	}

	s := e.Status()
	if s.Training.ModelVersion != 1 || s.Training.UserCount != 2 || s.Training.RatingCount != 2 {
		t.Errorf("Training status = %+v", s.Training)
	}
	if len(s.Algorithms) != 2 || !s.Algorithms[0].Trained || s.Algorithms[1].Trained {
		t.Errorf("Algorithms = %+v", s.Algorithms)
	}
}

func TestEngine_TrainFailures(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		e, p := newTestEngine(t, &mockAlgorithm{name: AlgorithmContent})
		p.data = &TrainingData{}
		if err := e.Train(context.Background()); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Train = %v, want ErrInsufficientData", err)
		}
		if e.Status().Training.LastError == "" {
			t.Error("LastError should be recorded")
		}
	})

	t.Run("all algorithms fail", func(t *testing.T) {
		e, _ := newTestEngine(t, &mockAlgorithm{name: AlgorithmContent, trainErr: errors.New("x")})
		if err := e.Train(context.Background()); !errors.Is(err, ErrNoAlgorithms) {
			t.Errorf("Train = %v, want ErrNoAlgorithms", err)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		e, p := newTestEngine(t, &mockAlgorithm{name: AlgorithmContent})
		p.dataErr = errors.New("db down")
		if err := e.Train(context.Background()); err == nil {
			t.Error("Train should fail")
		}
	})
}

func TestEngine_TrainConcurrentSkipped(t *testing.T) {
	slow := &mockAlgorithm{name: AlgorithmContent, trainDelay: 200 * time.Millisecond}
	e, _ := newTestEngine(t, slow)

	done := make(chan error, 1)
	go func() { done <- e.Train(context.Background()) }()

	// Wait until the first run holds the lock.
	deadline := time.Now().Add(2 * time.Second)
	for slow.trainCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := e.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("concurrent Train = %v, want ErrTrainingInProgress", err)
	}
	if err := <-done; err != nil {
		t.Errorf("first Train = %v", err)
	}
}

func TestEngine_TrainClearsCache(t *testing.T) {
	content := &mockAlgorithm{name: AlgorithmContent, trained: true, items: []ScoredMovie{{MovieID: 1, Score: 0.5}}}
	e, p := newTestEngine(t, content)
	ctx := context.Background()

	_, _ = e.Recommend(ctx, Request{UserID: 1, Limit: 2})
	if err := e.Train(ctx); err != nil {
		t.Fatal(err)
	}
	resp, _ := e.Recommend(ctx, Request{UserID: 1, Limit: 2})
	if resp.Metadata.Cached {
		t.Error("cache should be cleared by training")
	}
	if resp.Metadata.ModelVersion != 1 {
		t.Errorf("ModelVersion = %d, want 1", resp.Metadata.ModelVersion)
	}
	if p.loads.Load() != 2 {
		t.Errorf("profile loads = %d, want 2", p.loads.Load())
	}
}

type reverseReranker struct{}

func (reverseReranker) Name() string { return "reverse" }
func (reverseReranker) Rerank(_ context.Context, items []ScoredMovie, k int) []ScoredMovie {
	out := make([]ScoredMovie, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func TestEngine_Reranker(t *testing.T) {
	content := &mockAlgorithm{name: AlgorithmContent, trained: true, items: []ScoredMovie{
		{MovieID: 1, Score: 0.9}, {MovieID: 2, Score: 0.8},
	}}
	e, _ := newTestEngine(t, content)
	e.SetReranker(reverseReranker{})

	resp, err := e.Recommend(context.Background(), Request{UserID: 1, Limit: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 2 || resp.Items[0].MovieID != 2 {
		t.Errorf("items = %+v, want reversed", resp.Items)
	}
	if got := e.Status().Rerankers; len(got) != 1 || got[0] != "reverse" {
		t.Errorf("Rerankers = %v", got)
	}

	e.SetReranker(nil)
	if got := e.Status().Rerankers; len(got) != 0 {
		t.Errorf("Rerankers after nil = %v, want none", got)
	}
}

func TestMergeScored(t *testing.T) {
	got := mergeScored([]ScoredMovie{
		{MovieID: 3, Score: 0.5, Reason: "a"},
		{MovieID: 1, Score: 0.5, Reason: "b"},
		{MovieID: 3, Score: 0.9, Reason: "c"},
		{MovieID: 2, Score: 0.7, Reason: "d"},
	})
	want := []struct {
		id     int64
		score  float64
		reason string
	}{
		{3, 0.9, "a"},
		{2, 0.7, "d"},
		{1, 0.5, "b"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].MovieID != w.id || got[i].Score != w.score || got[i].Reason != w.reason {
			t.Errorf("item %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative weight", func(c *Config) { c.Weights.Content = -1 }, true},
		{"zero weights", func(c *Config) { c.Weights = Weights{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfile_Excluded(t *testing.T) {
	p := NewProfile(1, []string{"Drama"}, map[int64]float64{10: 4.5}, []int64{20})
	for _, id := range []int64{10, 20} {
		if !p.IsExcluded(id) {
			t.Errorf("IsExcluded(%d) = false, want true", id)
		}
	}
	if p.IsExcluded(30) {
		t.Error("IsExcluded(30) = true, want false")
	}
}

func TestNewEngine_KeepsCallerLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("component", "recommend").Logger()
	e, err := NewEngine(nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	e.logger.Info().Msg("ready")
	if n := strings.Count(buf.String(), `"component"`); n != 1 {
		t.Errorf("component field written %d times in %s, want 1", n, buf.String())
	}
}
