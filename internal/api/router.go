// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/reelmatch/internal/accounts"
	_ "github.com/tomtom215/reelmatch/internal/api/docs" // registers the OpenAPI document
	"github.com/tomtom215/reelmatch/internal/audit"
	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/authz"
	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/middleware"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/tasks"
)

// AccountService is the user account surface used by the auth and user
// handlers. *accounts.Service implements it.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*accounts.AuthResult, error)
	Login(ctx context.Context, in accounts.LoginInput) (*accounts.AuthResult, error)
	ObtainToken(ctx context.Context, in accounts.LoginInput) (*auth.TokenPair, error)
	RefreshToken(ctx context.Context, refresh string) (*accounts.RefreshResult, error)
	Logout(ctx context.Context, userID int64, refresh, clientIP string) error
	Profile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, in *accounts.ProfileInput, partial bool) (*models.User, error)
	Preferences(ctx context.Context, userID int64) (models.UserPreferences, error)
	UpdatePreferences(ctx context.Context, userID int64, patch models.PreferencesPatch) (models.UserPreferences, error)
	ChangePassword(ctx context.Context, userID int64, in accounts.ChangePasswordInput) error
}

// CatalogService is the movie browsing and activity surface.
// *catalog.Service implements it.
type CatalogService interface {
	Trending(ctx context.Context, timeWindow string, page, pageSize int) (*catalog.MoviePage, error)
	Popular(ctx context.Context, page, pageSize int) (*catalog.MoviePage, error)
	Search(ctx context.Context, query string, page, year, pageSize int) (*catalog.MoviePage, error)
	List(ctx context.Context, filter models.MovieFilter, page, pageSize int) (*catalog.MoviePage, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	Detail(ctx context.Context, tmdbID int64, viewerID *int64) (*catalog.MovieDetail, error)

	AddFavorite(ctx context.Context, userID, movieID int64) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, favoriteID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error)
	Rate(ctx context.Context, userID, movieID int64, value float64, review string) (*models.Rating, bool, error)
	ListRatings(ctx context.Context, userID int64) ([]models.Rating, error)
}

// RecommendService is the recommendation surface. *recommend.Service
// implements it.
type RecommendService interface {
	Personalized(ctx context.Context, userID int64, limit int) ([]models.Recommendation, error)
	Trending(ctx context.Context, limit int) ([]models.Movie, error)
	TrackInteraction(ctx context.Context, in recommend.TrackInput) (int64, error)
	Status() recommend.Status
}

// TaskRunner runs background tasks on demand. *tasks.Runner implements it.
type TaskRunner interface {
	Names() []string
	IsRunning(name string) bool
	Start(ctx context.Context, name, trigger string) (string, error)
	History(limit int) []tasks.Run
	Get(id string) (tasks.Run, bool)
}

// AuditTrail records and lists account and admin events. *audit.Logger
// implements it.
type AuditTrail interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
	Stats(ctx context.Context) (*audit.Stats, error)
	TaskRun(ctx context.Context, userID int64, task, runID, ip string)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names a readiness dependency.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// Dependencies are the services the router serves. Auth is required;
// Authz, Audit, WebSocket and Performance are optional.
type Dependencies struct {
	Accounts  AccountService
	Catalog   CatalogService
	Recommend RecommendService
	Tasks     TaskRunner
	Audit     AuditTrail
	Health    []HealthCheck

	Auth        *auth.Middleware
	Authz       *authz.Middleware
	WebSocket   http.HandlerFunc
	Performance *middleware.PerformanceMonitor
	Middleware  *ChiMiddlewareConfig

	Version string
}

// Router builds the chi route tree.
type Router struct {
	deps      Dependencies
	chi       *ChiMiddleware
	startTime time.Time
}

// NewRouter creates a router over deps.
func NewRouter(deps Dependencies) *Router {
	return &Router{
		deps:      deps,
		chi:       NewChiMiddleware(deps.Middleware),
		startTime: time.Now(),
	}
}

// protected requires authentication and, when configured, a casbin
// decision for the request path.
func (rt *Router) protected(h http.HandlerFunc) http.HandlerFunc {
	if rt.deps.Authz != nil {
		h = rt.deps.Authz.AuthorizeRequest(h)
	}
	return rt.deps.Auth.Authenticate(h)
}

// protectedWebSocket is protected with the token query fallback enabled.
func (rt *Router) protectedWebSocket(h http.HandlerFunc) http.HandlerFunc {
	if rt.deps.Authz != nil {
		h = rt.deps.Authz.AuthorizeRequest(h)
	}
	return rt.deps.Auth.AuthenticateWebSocket(h)
}

// Handler returns the HTTP handler with all global middleware applied.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.chi.CORS())
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)
	if rt.deps.Performance != nil {
		r.Use(rt.deps.Performance.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health/live", rt.handleLive)
		r.Get("/health/ready", rt.handleReady)

		// Credential endpoints
		r.Group(func(r chi.Router) {
			r.Use(rt.chi.RateLimitAuth())
			r.Post("/auth/token/", rt.handleObtainToken)
			r.Post("/auth/token/refresh/", rt.handleRefreshToken)
			r.Post("/users/register/", rt.handleRegister)
			r.Post("/users/login/", rt.handleLogin)
			r.Post("/users/logout/", rt.protected(rt.handleLogout))
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.chi.RateLimit())

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile/", rt.protected(rt.handleGetProfile))
				r.Put("/profile/", rt.protected(rt.handleUpdateProfile))
				r.Patch("/profile/", rt.protected(rt.handlePatchProfile))
				r.Get("/preferences/", rt.protected(rt.handleGetPreferences))
				r.Patch("/preferences/", rt.protected(rt.handlePatchPreferences))
				r.Post("/change-password/", rt.protected(rt.handleChangePassword))
			})

			r.Route("/movies", func(r chi.Router) {
				r.Get("/", rt.handleListMovies)
				r.Get("/trending/", rt.handleTrendingMovies)
				r.Get("/popular/", rt.handlePopularMovies)
				r.Get("/search/", rt.handleSearchMovies)
				r.Get("/genres/", rt.handleGenres)

				r.Get("/favorites/", rt.protected(rt.handleListFavorites))
				r.Post("/favorites/", rt.protected(rt.handleAddFavorite))
				r.Delete("/favorites/{id}/remove/", rt.protected(rt.handleRemoveFavorite))
				r.Post("/rate/", rt.protected(rt.handleRate))
				r.Get("/ratings/", rt.protected(rt.handleListRatings))

				r.Get("/{tmdb_id}/", rt.deps.Auth.OptionalAuthenticate(rt.handleMovieDetail))
			})

			r.Route("/recommendations", func(r chi.Router) {
				r.Get("/personalized/", rt.protected(rt.handlePersonalized))
				r.Get("/trending/", rt.handleTrendingRecommendations)
				r.Post("/track-interaction/", rt.protected(rt.handleTrackInteraction))
				r.Get("/status", rt.handleRecommendStatus)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/tasks/", rt.protected(rt.handleListTasks))
				r.Get("/tasks/runs/{id}", rt.protected(rt.handleGetTaskRun))
				r.Post("/tasks/{name}/run", rt.protected(rt.handleRunTask))
				r.Get("/performance/", rt.protected(rt.handlePerformance))
				if rt.deps.Audit != nil {
					r.Get("/audit/", rt.protected(rt.handleListAudit))
					r.Get("/audit/stats", rt.protected(rt.handleAuditStats))
				}
			})
		})

		if rt.deps.WebSocket != nil {
			r.Get("/ws", rt.protectedWebSocket(rt.deps.WebSocket))
		}
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
