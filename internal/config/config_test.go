// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.TMDb.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("TMDb.BaseURL = %q", cfg.TMDb.BaseURL)
	}
	if cfg.TMDb.Timeout != 10*time.Second {
		t.Errorf("TMDb.Timeout = %v, want 10s", cfg.TMDb.Timeout)
	}
	if cfg.Cache.KeyPrefix != "movie_rec" {
		t.Errorf("Cache.KeyPrefix = %q, want movie_rec", cfg.Cache.KeyPrefix)
	}
	if cfg.Cache.DefaultTTL != 300*time.Second {
		t.Errorf("Cache.DefaultTTL = %v, want 5m", cfg.Cache.DefaultTTL)
	}
	if cfg.Security.AccessTokenTTL != time.Hour {
		t.Errorf("Security.AccessTokenTTL = %v, want 1h", cfg.Security.AccessTokenTTL)
	}
	if cfg.Security.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("Security.RefreshTokenTTL = %v, want 168h", cfg.Security.RefreshTokenTTL)
	}
	if cfg.Recommend.MinRatingCount != 5 {
		t.Errorf("Recommend.MinRatingCount = %d, want 5", cfg.Recommend.MinRatingCount)
	}
	sum := cfg.Recommend.CollaborativeWeight + cfg.Recommend.ContentWeight + cfg.Recommend.PopularityWeight
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("recommendation weights sum = %v, want 1.0", sum)
	}
	if cfg.Scheduler.SyncCron != "0 2 * * *" {
		t.Errorf("Scheduler.SyncCron = %q, want 0 2 * * *", cfg.Scheduler.SyncCron)
	}
	if cfg.Sync.Pages != 5 {
		t.Errorf("Sync.Pages = %d, want 5", cfg.Sync.Pages)
	}
	if len(cfg.Sync.Categories) != 2 {
		t.Errorf("Sync.Categories = %v, want [trending popular]", cfg.Sync.Categories)
	}
	if !cfg.Audit.Enabled || cfg.Audit.RetentionDays != 90 {
		t.Errorf("Audit = %+v, want enabled with 90 day retention", cfg.Audit)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"TMDB_API_KEY", "tmdb.api_key"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"HTTP_PORT", "server.port"},
		{"REDIS_URL", "cache.redis_url"},
		{"CACHE_BACKEND", "cache.backend"},
		{"LOG_LEVEL", "logging.level"},
		{"SYNC_CATEGORIES", "sync.categories"},
		{"NATS_EMBEDDED", "events.embedded_server"},
		{"recommend_min_rating_count", "recommend.min_rating_count"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TMDB_API_KEY", "abc123")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SYNC_CATEGORIES", "popular")
	t.Setenv("TMDB_TIMEOUT", "3s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.TMDb.APIKey != "abc123" {
		t.Errorf("TMDb.APIKey = %q, want abc123", cfg.TMDb.APIKey)
	}
	if cfg.TMDb.Timeout != 3*time.Second {
		t.Errorf("TMDb.Timeout = %v, want 3s", cfg.TMDb.Timeout)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if len(cfg.Sync.Categories) != 1 || cfg.Sync.Categories[0] != "popular" {
		t.Errorf("Sync.Categories = %v, want [popular]", cfg.Sync.Categories)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
cache:
  backend: redis
  redis_url: redis://cache:6379/0
recommend:
  diversity_enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisURL != "redis://cache:6379/0" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if !cfg.Recommend.DiversityEnabled {
		t.Error("Recommend.DiversityEnabled should be true from file")
	}
	// Untouched values keep their defaults.
	if cfg.Sync.Pages != 5 {
		t.Errorf("Sync.Pages = %d, want default 5", cfg.Sync.Pages)
	}
}

func TestLoadWithKoanf_MissingSecret(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("LoadWithKoanf() error = %v, want JWT_SECRET error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "at least 32"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"refresh shorter than access", func(c *Config) { c.Security.RefreshTokenTTL = time.Minute }, "JWT_REFRESH_TTL"},
		{"unknown blacklist", func(c *Config) { c.Security.BlacklistStore = "sql" }, "TOKEN_BLACKLIST"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisURL = "" }, "REDIS_URL"},
		{"redis bad scheme", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisURL = "http://x" }, "REDIS_URL"},
		{"bad tmdb url", func(c *Config) { c.TMDb.BaseURL = "ftp://tmdb" }, "TMDB_BASE_URL"},
		{"unknown transport", func(c *Config) { c.Events.Transport = "kafka" }, "EVENTS_TRANSPORT"},
		{"nats bad url", func(c *Config) { c.Events.Transport = "nats"; c.Events.NATSURL = "http://x" }, "NATS_URL"},
		{"nats embedded skips url", func(c *Config) {
			c.Events.Transport = "nats"
			c.Events.EmbeddedServer = true
			c.Events.NATSURL = ""
		}, ""},
		{"weight out of range", func(c *Config) { c.Recommend.ContentWeight = 1.5 }, "RECOMMEND_CONTENT_WEIGHT"},
		{"default limit above max", func(c *Config) { c.Recommend.DefaultLimit = 500 }, "RECOMMEND_DEFAULT_LIMIT"},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "SCHEDULER_TIMEZONE"},
		{"unknown sync category", func(c *Config) { c.Sync.Categories = []string{"upcoming"} }, "SYNC_CATEGORIES"},
		{"negative audit retention", func(c *Config) { c.Audit.RetentionDays = -1 }, "AUDIT_RETENTION_DAYS"},
		{"audit without buffer", func(c *Config) { c.Audit.BufferSize = 0 }, "AUDIT_BUFFER_SIZE"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsAdminEmail(t *testing.T) {
	sec := SecurityConfig{AdminEmails: []string{"Admin@Example.com", " ops@example.com "}}

	if !sec.IsAdminEmail("admin@example.com") {
		t.Error("IsAdminEmail should be case-insensitive")
	}
	if !sec.IsAdminEmail("ops@example.com") {
		t.Error("IsAdminEmail should trim whitespace")
	}
	if sec.IsAdminEmail("user@example.com") {
		t.Error("IsAdminEmail(user@example.com) = true, want false")
	}
}

func TestIsProduction(t *testing.T) {
	for env, want := range map[string]bool{"production": true, "prod": true, "PRODUCTION": true, "development": false, "": false} {
		cfg := &Config{Server: ServerConfig{Environment: env}}
		if got := cfg.IsProduction(); got != want {
			t.Errorf("IsProduction(%q) = %v, want %v", env, got, want)
		}
	}
}
