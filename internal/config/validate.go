// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package config

import (
	"fmt"
	"math"
	"net/url"
	"time"
)

// MinJWTSecretLength is the shortest accepted JWT_SECRET.
const MinJWTSecretLength = 32

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSecurity,
		c.validateTMDb,
		c.validateCache,
		c.validateEvents,
		c.validateRecommend,
		c.validateScheduler,
		c.validateSync,
		c.validateAudit,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required (generate one with cmd/secret)")
	}
	if len(c.Security.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if c.Security.AccessTokenTTL < time.Minute {
		return fmt.Errorf("JWT_ACCESS_TTL must be at least 1m")
	}
	if c.Security.RefreshTokenTTL <= c.Security.AccessTokenTTL {
		return fmt.Errorf("JWT_REFRESH_TTL must be longer than JWT_ACCESS_TTL")
	}
	switch c.Security.BlacklistStore {
	case "badger", "memory":
	default:
		return fmt.Errorf("TOKEN_BLACKLIST must be one of: badger, memory")
	}
	if c.Security.BlacklistStore == "badger" && !c.Badger.InMemory && c.Badger.Path == "" {
		return fmt.Errorf("BADGER_PATH is required when TOKEN_BLACKLIST=badger")
	}
	return c.validateRateLimits()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.AuthRateLimitReqs < minRateLimitRequests || c.Security.AuthRateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("AUTH_RATE_LIMIT must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateTMDb() error {
	if err := validateHTTPURL(c.TMDb.BaseURL, "TMDB_BASE_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.TMDb.ImageBaseURL, "TMDB_IMAGE_BASE_URL"); err != nil {
		return err
	}
	if c.TMDb.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive")
	}
	if c.TMDb.RateLimit <= 0 || c.TMDb.RateBurst < 1 {
		return fmt.Errorf("TMDB_RATE_LIMIT and TMDB_RATE_BURST must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
		if c.Cache.Capacity < 1 {
			return fmt.Errorf("CACHE_CAPACITY must be positive")
		}
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
		u, err := url.Parse(c.Cache.RedisURL)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return fmt.Errorf("REDIS_URL must use the redis:// or rediss:// scheme")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis")
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Transport {
	case "channel":
	case "nats":
		if !c.Events.EmbeddedServer {
			if err := validateNATSURL(c.Events.NATSURL); err != nil {
				return fmt.Errorf("NATS_URL is invalid: %w", err)
			}
		}
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: channel, nats")
	}
	if c.Events.TopicPrefix == "" {
		return fmt.Errorf("EVENTS_TOPIC_PREFIX is required")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	for name, w := range map[string]float64{
		"RECOMMEND_COLLABORATIVE_WEIGHT": r.CollaborativeWeight,
		"RECOMMEND_CONTENT_WEIGHT":       r.ContentWeight,
		"RECOMMEND_POPULARITY_WEIGHT":    r.PopularityWeight,
	} {
		if w < 0 || w > 1 || math.IsNaN(w) {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be between 1 and RECOMMEND_MAX_LIMIT")
	}
	if r.MinCommonRatings < 1 {
		return fmt.Errorf("RECOMMEND_MIN_COMMON_RATINGS must be positive")
	}
	if r.DiversityLambda < 0 || r.DiversityLambda > 1 {
		return fmt.Errorf("RECOMMEND_DIVERSITY_LAMBDA must be between 0 and 1")
	}
	if r.TrainInterval < time.Minute {
		return fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be at least 1m")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE is invalid: %w", err)
	}
	if c.Scheduler.TaskTimeout <= 0 {
		return fmt.Errorf("TASK_TIMEOUT must be positive")
	}
	return nil
}

var validSyncCategories = map[string]bool{"trending": true, "popular": true}

func (c *Config) validateSync() error {
	if c.Sync.Pages < 1 || c.Sync.Pages > 500 {
		return fmt.Errorf("SYNC_PAGES must be between 1 and 500")
	}
	for _, cat := range c.Sync.Categories {
		if !validSyncCategories[cat] {
			return fmt.Errorf("SYNC_CATEGORIES contains unknown category %q (want trending, popular)", cat)
		}
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("SYNC_RETRY_ATTEMPTS must not be negative")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// validateHTTPURL accepts http(s) URLs with a host and an optional path.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
