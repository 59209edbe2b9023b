// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tomtom215/reelmatch/internal/accounts"
	"github.com/tomtom215/reelmatch/internal/api"
	"github.com/tomtom215/reelmatch/internal/audit"
	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/authz"
	"github.com/tomtom215/reelmatch/internal/cache"
	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/database"
	"github.com/tomtom215/reelmatch/internal/events"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/middleware"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/scheduler"
	"github.com/tomtom215/reelmatch/internal/supervisor"
	"github.com/tomtom215/reelmatch/internal/supervisor/services"
	"github.com/tomtom215/reelmatch/internal/tasks"
	"github.com/tomtom215/reelmatch/internal/tmdb"
	ws "github.com/tomtom215/reelmatch/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	performanceSamples       = 1000
	blacklistCleanupEvery    = time.Hour
	supervisorFailureLimit   = 5
	supervisorFailureBackoff = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting ReelMatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === DATA LAYER ===

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	backend, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize cache backend")
	}
	if c, ok := backend.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	blacklist, closeBlacklist := initBlacklist(cfg)
	defer closeBlacklist()

	// === DOMAIN SERVICES ===

	tmdbClient := tmdb.NewClient(&cfg.TMDb)
	if !tmdbClient.Configured() {
		logging.Warn().Msg("TMDB_API_KEY not set, TMDb endpoints will return 503")
	}
	tmdbAPI := tmdb.NewCachedClient(tmdbClient, backend)

	bus, err := events.NewBus(&cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close event bus")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security, blacklist)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	accountSvc := accounts.NewService(db, jwtManager, &cfg.Security)

	var auditTrail api.AuditTrail
	trail, err := initAudit(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize audit trail")
	}
	if trail != nil {
		defer func() { _ = trail.Close() }()
		accountSvc.SetAuditor(trail)
		auditTrail = trail
	}

	catalogSvc := catalog.NewService(tmdbAPI, db, cfg.TMDb.ImageBaseURL)

	engine, trainer, err := initRecommend(cfg, database.NewRecommendationDataProvider(db), logging.WithComponent("recommend"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	recommendSvc := recommend.NewService(engine, db, catalogSvc, backend, bus)
	catalogSvc.SetInteractionHooks(bus, recommendSvc)

	hub := ws.NewHub()

	runner := tasks.NewRunner(nil)
	tasks.New(tasks.Deps{
		TMDb:        tmdbAPI,
		ListCache:   tmdbAPI,
		Catalog:     catalogSvc,
		Store:       db,
		Recommender: recommendSvc,
		Trainer:     engine,
		Cache:       backend,
		Publisher:   bus,
		Broadcaster: hub,
		Sync:        cfg.Sync,
	}).Register(runner)

	eventRouter, err := events.NewRouter(bus, events.DefaultRouterConfig(), recommendSvc, hub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event router")
	}

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		DefaultRole: "user",
		CacheTTL:    cfg.Security.CasbinCacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	defer enforcer.Close()

	perf := middleware.NewPerformanceMonitor(performanceSamples)

	router := api.NewRouter(api.Dependencies{
		Accounts:  accountSvc,
		Catalog:   catalogSvc,
		Recommend: recommendSvc,
		Tasks:     runner,
		Audit:     auditTrail,
		Health: []api.HealthCheck{
			{Name: "database", Pinger: db},
			{Name: "cache", Pinger: backend},
		},
		Auth:        auth.NewMiddleware(jwtManager),
		Authz:       authz.NewMiddleware(enforcer),
		WebSocket:   ws.NewHandler(hub, cfg.Security.CORSOrigins),
		Performance: perf,
		Middleware:  api.ChiMiddlewareConfigFromSecurity(&cfg.Security),
		Version:     version,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: supervisorFailureLimit,
		FailureBackoff:   supervisorFailureBackoff,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer services
	tree.AddDataService(trainer)
	tree.AddDataService(services.NewBlacklistCleanupService(blacklist, blacklistCleanupEvery, logging.WithComponent("auth")))
	if trail != nil {
		tree.AddDataService(trail)
	}

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventRouterService(eventRouter))
	if cfg.Scheduler.Enabled {
		sched, err := initScheduler(cfg, runner)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		tree.AddMessagingService(services.NewSchedulerService(sched))
		logging.Info().Int("jobs", len(sched.Jobs())).Msg("Scheduler service added")
	} else {
		logging.Info().Msg("Scheduler disabled (SCHEDULER_ENABLED=false)")
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	runner.Wait()

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// initBlacklist opens the revoked-token store selected by
// TOKEN_BLACKLIST. The returned func closes it and any badger database.
func initBlacklist(cfg *config.Config) (auth.Blacklist, func()) {
	if strings.EqualFold(cfg.Security.BlacklistStore, "memory") {
		logging.Info().Msg("Using in-memory token blacklist")
		bl := auth.NewMemoryBlacklist()
		return bl, func() { _ = bl.Close() }
	}

	kv, err := auth.OpenBadger(cfg.Badger.Path, cfg.Badger.InMemory)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Badger.Path).Msg("Failed to open badger")
	}
	logging.Info().Str("path", cfg.Badger.Path).Bool("in_memory", cfg.Badger.InMemory).Msg("Using badger token blacklist")
	bl := auth.NewBadgerBlacklist(kv)
	return bl, func() {
		_ = bl.Close()
		if err := kv.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close badger")
		}
	}
}

// initScheduler registers the beat schedule, running each entry through
// runner so scheduled and manual runs share history and the overlap guard.
func initScheduler(cfg *config.Config, runner *tasks.Runner) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	sched := scheduler.New(nil, scheduler.Config{
		Location:   loc,
		JobTimeout: cfg.Scheduler.TaskTimeout,
	})
	err = sched.AddBeatSchedule(cfg.Scheduler, func(ctx context.Context, task string) error {
		_, err := runner.Run(ctx, task, "beat")
		return err
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// initAudit creates the audit_events table and starts the trail. It
// returns nil when AUDIT_ENABLED is false.
func initAudit(ctx context.Context, cfg *config.Config, db *database.DB) (*audit.Logger, error) {
	if !cfg.Audit.Enabled {
		logging.Info().Msg("Audit trail disabled")
		return nil, nil
	}
	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		return nil, err
	}
	trail := audit.NewLogger(store, audit.Config{
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: cfg.Audit.CleanupInterval,
		BufferSize:      cfg.Audit.BufferSize,
	})
	logging.Info().Int("retention_days", cfg.Audit.RetentionDays).Msg("Audit trail enabled")
	return trail, nil
}
