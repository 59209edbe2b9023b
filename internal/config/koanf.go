// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelmatch/config.yaml",
	"/etc/reelmatch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:      "data/reelmatch.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Badger: BadgerConfig{
			Path:     "data/badger",
			InMemory: false,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			AccessTokenTTL:    60 * time.Minute,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			BlacklistStore:    "badger",
			AdminEmails:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			AuthRateLimitReqs: 20,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
			CasbinCacheTTL:    5 * time.Minute,
		},
		TMDb: TMDbConfig{
			APIKey:       "",
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Timeout:      10 * time.Second,
			RateLimit:    4, // TMDb allows roughly 40 requests per 10 seconds
			RateBurst:    10,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			Capacity:   10000,
			DefaultTTL: 300 * time.Second,
			RedisURL:   "redis://localhost:6379/1",
			KeyPrefix:  "movie_rec",
		},
		Events: EventsConfig{
			Transport:      "channel",
			TopicPrefix:    "reelmatch",
			NATSURL:        "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "data/nats",
			BufferSize:     256,
		},
		Recommend: RecommendConfig{
			TrainInterval:       time.Hour,
			TrainOnStartup:      true,
			CacheTTL:            10 * time.Minute,
			CollaborativeWeight: 0.4,
			ContentWeight:       0.4,
			PopularityWeight:    0.2,
			MinRatingCount:      5,
			MinCommonRatings:    5,
			SimilarityThreshold: 0.1,
			DefaultLimit:        20,
			MaxLimit:            100,
			DiversityEnabled:    false,
			DiversityLambda:     0.7,
			PredictionTimeout:   5 * time.Second,
			TrainingTimeout:     10 * time.Minute,
			Workers:             0,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			Timezone:            "UTC",
			SyncCron:            "0 2 * * *",
			RecommendationsCron: "0 3 * * *",
			CleanupCron:         "0 4 * * *",
			TrendingCron:        "0 * * * *",
			PopularityCron:      "30 * * * *",
			TaskTimeout:         30 * time.Minute,
		},
		Sync: SyncConfig{
			Pages:              5,
			Categories:         []string{"trending", "popular"},
			RetryAttempts:      3,
			RetryBaseDelay:     60 * time.Second,
			RecommendUserLimit: 100,
			RecommendPerUser:   20,
		},
		Audit: AuditConfig{
			Enabled:         true,
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
			BufferSize:      1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf layers defaults, config file and environment variables,
// then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.admin_emails",
	"sync.categories",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"badger_path":      "badger.path",
	"badger_in_memory": "badger.in_memory",

	"jwt_secret":           "security.jwt_secret",
	"jwt_access_ttl":       "security.access_token_ttl",
	"jwt_refresh_ttl":      "security.refresh_token_ttl",
	"token_blacklist":      "security.blacklist_store",
	"admin_emails":         "security.admin_emails",
	"rate_limit_requests":  "security.rate_limit_reqs",
	"rate_limit_window":    "security.rate_limit_window",
	"auth_rate_limit":      "security.auth_rate_limit_reqs",
	"disable_rate_limit":   "security.rate_limit_disabled",
	"cors_origins":         "security.cors_origins",
	"casbin_cache_ttl":     "security.casbin_cache_ttl",
	"tmdb_api_key":         "tmdb.api_key",
	"tmdb_base_url":        "tmdb.base_url",
	"tmdb_image_base_url":  "tmdb.image_base_url",
	"tmdb_timeout":         "tmdb.timeout",
	"tmdb_rate_limit":      "tmdb.rate_limit",
	"tmdb_rate_burst":      "tmdb.rate_burst",
	"cache_backend":        "cache.backend",
	"cache_capacity":       "cache.capacity",
	"cache_ttl":            "cache.default_ttl",
	"redis_url":            "cache.redis_url",
	"cache_key_prefix":     "cache.key_prefix",
	"events_transport":     "events.transport",
	"events_topic_prefix":  "events.topic_prefix",
	"nats_url":             "events.nats_url",
	"nats_embedded":        "events.embedded_server",
	"nats_store_dir":       "events.store_dir",
	"events_buffer_size":   "events.buffer_size",
	"scheduler_enabled":    "scheduler.enabled",
	"scheduler_timezone":   "scheduler.timezone",
	"sync_cron":            "scheduler.sync_cron",
	"recommendations_cron": "scheduler.recommendations_cron",
	"cleanup_cron":         "scheduler.cleanup_cron",
	"trending_cron":        "scheduler.trending_cron",
	"popularity_cron":      "scheduler.popularity_cron",
	"task_timeout":         "scheduler.task_timeout",
	"sync_pages":           "sync.pages",
	"sync_categories":      "sync.categories",
	"sync_retry_attempts":  "sync.retry_attempts",
	"sync_retry_delay":     "sync.retry_base_delay",

	"audit_enabled":          "audit.enabled",
	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_interval": "audit.cleanup_interval",
	"audit_buffer_size":      "audit.buffer_size",

	"recommend_train_interval":       "recommend.train_interval",
	"recommend_train_on_startup":     "recommend.train_on_startup",
	"recommend_cache_ttl":            "recommend.cache_ttl",
	"recommend_collaborative_weight": "recommend.collaborative_weight",
	"recommend_content_weight":       "recommend.content_weight",
	"recommend_popularity_weight":    "recommend.popularity_weight",
	"recommend_min_rating_count":     "recommend.min_rating_count",
	"recommend_min_common_ratings":   "recommend.min_common_ratings",
	"recommend_similarity_threshold": "recommend.similarity_threshold",
	"recommend_default_limit":        "recommend.default_limit",
	"recommend_max_limit":            "recommend.max_limit",
	"recommend_diversity_enabled":    "recommend.diversity_enabled",
	"recommend_diversity_lambda":     "recommend.diversity_lambda",
	"recommend_workers":              "recommend.workers",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps a known environment variable to its koanf path.
// Unknown variables map to "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
