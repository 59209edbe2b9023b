// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package config loads ReelMatch configuration.
//
// Loading order (later layers win):
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: CONFIG_PATH, ./config.yaml, /etc/reelmatch/config.yaml
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Badger    BadgerConfig    `koanf:"badger"`
	Security  SecurityConfig  `koanf:"security"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Cache     CacheConfig     `koanf:"cache"`
	Events    EventsConfig    `koanf:"events"`
	Recommend RecommendConfig `koanf:"recommend"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Sync      SyncConfig      `koanf:"sync"`
	Audit     AuditConfig     `koanf:"audit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// BadgerConfig holds the embedded key-value store used for revoked tokens.
type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// SecurityConfig holds authentication, rate limiting and CORS settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`

	// BlacklistStore is "badger" (persistent) or "memory".
	BlacklistStore string `koanf:"blacklist_store"`

	// AdminEmails are granted the admin role when they register.
	AdminEmails []string `koanf:"admin_emails"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	AuthRateLimitReqs int           `koanf:"auth_rate_limit_reqs"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	CasbinCacheTTL time.Duration `koanf:"casbin_cache_ttl"`
}

// TMDbConfig holds The Movie Database API settings.
type TMDbConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	Timeout      time.Duration `koanf:"timeout"`

	// RateLimit is requests per second; RateBurst is the bucket size.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend    string        `koanf:"backend"` // memory or redis
	Capacity   int           `koanf:"capacity"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	RedisURL   string        `koanf:"redis_url"`
	KeyPrefix  string        `koanf:"key_prefix"`
}

// EventsConfig selects the domain event transport.
type EventsConfig struct {
	Transport      string `koanf:"transport"` // channel or nats
	TopicPrefix    string `koanf:"topic_prefix"`
	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	BufferSize     int64  `koanf:"buffer_size"`
}

// RecommendConfig tunes the hybrid recommendation engine.
type RecommendConfig struct {
	TrainInterval  time.Duration `koanf:"train_interval"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`

	CollaborativeWeight float64 `koanf:"collaborative_weight"`
	ContentWeight       float64 `koanf:"content_weight"`
	PopularityWeight    float64 `koanf:"popularity_weight"`

	// MinRatingCount gates the collaborative algorithm per user.
	MinRatingCount int `koanf:"min_rating_count"`
	// MinCommonRatings is the co-rated movie count needed for a user pair.
	MinCommonRatings    int     `koanf:"min_common_ratings"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	DiversityEnabled bool    `koanf:"diversity_enabled"`
	DiversityLambda  float64 `koanf:"diversity_lambda"`

	PredictionTimeout time.Duration `koanf:"prediction_timeout"`
	TrainingTimeout   time.Duration `koanf:"training_timeout"`
	Workers           int           `koanf:"workers"` // 0 = runtime.NumCPU()
}

// SchedulerConfig holds the periodic task schedule (cron, 5 fields).
type SchedulerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	Timezone            string        `koanf:"timezone"`
	SyncCron            string        `koanf:"sync_cron"`
	RecommendationsCron string        `koanf:"recommendations_cron"`
	CleanupCron         string        `koanf:"cleanup_cron"`
	TrendingCron        string        `koanf:"trending_cron"`
	PopularityCron      string        `koanf:"popularity_cron"`
	TaskTimeout         time.Duration `koanf:"task_timeout"`
}

// SyncConfig holds TMDb catalog synchronisation settings.
type SyncConfig struct {
	Pages              int           `koanf:"pages"`
	Categories         []string      `koanf:"categories"`
	RetryAttempts      int           `koanf:"retry_attempts"`
	RetryBaseDelay     time.Duration `koanf:"retry_base_delay"`
	RecommendUserLimit int           `koanf:"recommend_user_limit"`
	RecommendPerUser   int           `koanf:"recommend_per_user"`
}

// AuditConfig holds the persistent account audit trail settings.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	RetentionDays   int           `koanf:"retention_days"` // 0 keeps events forever
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	BufferSize      int           `koanf:"buffer_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *SecurityConfig) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// Load reads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
