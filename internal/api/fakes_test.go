// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/accounts"
	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/authz"
	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/tasks"
)

const testSecret = "api_test_secret_that_is_at_least_32_characters"

type fakeAccounts struct {
	mu sync.Mutex

	user     *models.User
	err      error
	lastUID  int64
	refresh  string
	partial  bool
	password accounts.ChangePasswordInput
}

func (f *fakeAccounts) result() (*accounts.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &accounts.AuthResult{User: f.user, Tokens: &auth.TokenPair{Access: "a", Refresh: "r"}}, nil
}

func (f *fakeAccounts) Register(context.Context, accounts.RegisterInput) (*accounts.AuthResult, error) {
	return f.result()
}

func (f *fakeAccounts) Login(context.Context, accounts.LoginInput) (*accounts.AuthResult, error) {
	return f.result()
}

func (f *fakeAccounts) ObtainToken(context.Context, accounts.LoginInput) (*auth.TokenPair, error) {
	res, err := f.result()
	if err != nil {
		return nil, err
	}
	return res.Tokens, nil
}

func (f *fakeAccounts) RefreshToken(_ context.Context, refresh string) (*accounts.RefreshResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &accounts.RefreshResult{Access: "new-" + refresh}, nil
}

func (f *fakeAccounts) Logout(_ context.Context, uid int64, refresh, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUID, f.refresh = uid, refresh
	if refresh == "" {
		return accounts.ErrRefreshRequired
	}
	return f.err
}

func (f *fakeAccounts) Profile(_ context.Context, uid int64) (*models.User, error) {
	f.mu.Lock()
	f.lastUID = uid
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, uid int64, in *accounts.ProfileInput, partial bool) (*models.User, error) {
	f.mu.Lock()
	f.lastUID, f.partial = uid, partial
	f.mu.Unlock()
	u := *f.user
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	return &u, f.err
}

func (f *fakeAccounts) Preferences(context.Context, int64) (models.UserPreferences, error) {
	return f.user.Preferences, f.err
}

func (f *fakeAccounts) UpdatePreferences(_ context.Context, _ int64, patch models.PreferencesPatch) (models.UserPreferences, error) {
	return patch.Apply(f.user.Preferences), f.err
}

func (f *fakeAccounts) ChangePassword(_ context.Context, _ int64, in accounts.ChangePasswordInput) error {
	f.mu.Lock()
	f.password = in
	f.mu.Unlock()
	return f.err
}

type fakeCatalog struct {
	mu sync.Mutex

	page       *catalog.MoviePage
	genres     []models.Genre
	detail     *catalog.MovieDetail
	favorite   *models.Favorite
	rating     *models.Rating
	created    bool
	err        error
	filter     models.MovieFilter
	timeWindow string
	viewer     *int64
	removed    int64
}

func (f *fakeCatalog) pageOrErr() (*catalog.MoviePage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeCatalog) Trending(_ context.Context, tw string, _, _ int) (*catalog.MoviePage, error) {
	f.mu.Lock()
	f.timeWindow = tw
	f.mu.Unlock()
	return f.pageOrErr()
}

func (f *fakeCatalog) Popular(context.Context, int, int) (*catalog.MoviePage, error) {
	return f.pageOrErr()
}

func (f *fakeCatalog) Search(_ context.Context, q string, _, _, _ int) (*catalog.MoviePage, error) {
	p, err := f.pageOrErr()
	if err != nil {
		return nil, err
	}
	out := *p
	out.SearchQuery = q
	out.TotalResults = len(p.Movies)
	return &out, nil
}

func (f *fakeCatalog) List(_ context.Context, filter models.MovieFilter, _, _ int) (*catalog.MoviePage, error) {
	f.mu.Lock()
	f.filter = filter
	f.mu.Unlock()
	return f.pageOrErr()
}

func (f *fakeCatalog) Genres(context.Context) ([]models.Genre, error) { return f.genres, f.err }

func (f *fakeCatalog) Detail(_ context.Context, _ int64, viewer *int64) (*catalog.MovieDetail, error) {
	f.mu.Lock()
	f.viewer = viewer
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeCatalog) AddFavorite(context.Context, int64, int64) (*models.Favorite, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.favorite, nil
}

func (f *fakeCatalog) RemoveFavorite(_ context.Context, _, id int64) error {
	f.mu.Lock()
	f.removed = id
	f.mu.Unlock()
	return f.err
}

func (f *fakeCatalog) ListFavorites(context.Context, int64) ([]models.Favorite, error) {
	return []models.Favorite{}, f.err
}

func (f *fakeCatalog) Rate(_ context.Context, _, _ int64, value float64, _ string) (*models.Rating, bool, error) {
	if err := models.ValidateRating(value); err != nil {
		return nil, false, err
	}
	if f.err != nil {
		return nil, false, f.err
	}
	return f.rating, f.created, nil
}

func (f *fakeCatalog) ListRatings(context.Context, int64) ([]models.Rating, error) {
	return []models.Rating{}, f.err
}

type fakeRecommend struct {
	recs   []models.Recommendation
	movies []models.Movie
	err    error
	track  recommend.TrackInput
}

func (f *fakeRecommend) Personalized(context.Context, int64, int) ([]models.Recommendation, error) {
	return f.recs, f.err
}

func (f *fakeRecommend) Trending(context.Context, int) ([]models.Movie, error) {
	return f.movies, f.err
}

func (f *fakeRecommend) TrackInteraction(_ context.Context, in recommend.TrackInput) (int64, error) {
	f.track = in
	if in.MovieID == 0 || in.Type == "" {
		return 0, recommend.ErrMissingInteractionFields
	}
	if f.err != nil {
		return 0, f.err
	}
	return 99, nil
}

func (f *fakeRecommend) Status() recommend.Status {
	return recommend.Status{RequestCount: 7}
}

type fakeTasks struct {
	names   []string
	running map[string]bool
	runs    []tasks.Run
	started []string
}

func (f *fakeTasks) Names() []string            { return f.names }
func (f *fakeTasks) IsRunning(name string) bool { return f.running[name] }
func (f *fakeTasks) History(int) []tasks.Run    { return f.runs }

func (f *fakeTasks) Start(_ context.Context, name, _ string) (string, error) {
	known := false
	for _, n := range f.names {
		known = known || n == name
	}
	if !known {
		return "", tasks.ErrUnknownTask
	}
	if f.running[name] {
		return "", tasks.ErrAlreadyRunning
	}
	f.started = append(f.started, name)
	return "run-1", nil
}

func (f *fakeTasks) Get(id string) (tasks.Run, bool) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, true
		}
	}
	return tasks.Run{}, false
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// testEnv is a router over fakes with a real JWT manager and casbin
// enforcer.
type testEnv struct {
	accounts  *fakeAccounts
	catalog   *fakeCatalog
	recommend *fakeRecommend
	tasks     *fakeTasks
	jwt       *auth.JWTManager
	handler   http.Handler
}

func newTestEnv(t *testing.T, mutate func(*Dependencies)) *testEnv {
	t.Helper()
	jm, err := auth.NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret}, nil)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	env := &testEnv{
		accounts: &fakeAccounts{user: &models.User{ID: 42, Email: "neo@example.com", Username: "neo", Role: models.RoleUser}},
		catalog: &fakeCatalog{page: &catalog.MoviePage{
			Movies:     []models.Movie{{ID: 1, TMDbID: 603, Title: "The Matrix"}},
			Pagination: models.NewPagination(1, 20, 1),
		}},
		recommend: &fakeRecommend{},
		tasks:     &fakeTasks{names: []string{"sync_genres"}, running: map[string]bool{}},
		jwt:       jm,
	}

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	deps := Dependencies{
		Accounts:   env.accounts,
		Catalog:    env.catalog,
		Recommend:  env.recommend,
		Tasks:      env.tasks,
		Auth:       auth.NewMiddleware(jm),
		Authz:      authz.NewMiddleware(enforcer),
		Middleware: mw,
		Version:    "test",
	}
	if mutate != nil {
		mutate(&deps)
	}
	env.handler = NewRouter(deps).Handler()
	return env
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	pair, err := e.jwt.GenerateTokenPair(&models.User{ID: 42, Email: "neo@example.com", Username: "neo", Role: role})
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}
	return pair.Access
}

// do sends a request. token may be empty.
func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta *struct {
		RequestID  string             `json:"request_id"`
		Pagination *models.Pagination `json:"pagination"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("body = %s, want error envelope", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
	return env
}

var errBoom = errors.New("boom")
