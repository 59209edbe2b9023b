// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/models"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func newTestManager(t *testing.T, bl Blacklist) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:       testSecret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}, bl)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func testUser() *models.User {
	return &models.User{ID: 42, Email: "neo@example.com", Username: "neo", Role: models.RoleUser}
}

func TestNewJWTManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{"valid secret", &config.SecurityConfig{JWTSecret: testSecret}, false},
		{"empty secret", &config.SecurityConfig{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := NewJWTManager(tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if m.accessTTL != time.Hour || m.refreshTTL != 7*24*time.Hour {
				t.Errorf("TTLs = %v/%v, want 1h/168h defaults", m.accessTTL, m.refreshTTL)
			}
		})
	}
}

func TestGenerateTokenPair(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)

	pair, err := m.GenerateTokenPair(testUser())
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}
	if pair.Access == pair.Refresh {
		t.Error("access and refresh tokens are identical")
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Errorf("refresh expiry %v not after access expiry %v", pair.RefreshExpiresAt, pair.AccessExpiresAt)
	}

	claims, err := m.ValidateAccessToken(pair.Access)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.Subject != "42" || claims.UserID != 42 {
		t.Errorf("subject = %q (user %d), want 42", claims.Subject, claims.UserID)
	}
	if claims.Email != "neo@example.com" || claims.Role != models.RoleUser {
		t.Errorf("claims = %+v, want email and role", claims)
	}
	if claims.ID == "" {
		t.Error("jti is empty")
	}

	if _, err := m.ValidateAccessToken(pair.Refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("ValidateAccessToken(refresh) error = %v, want ErrWrongTokenType", err)
	}
	if _, err := m.ValidateRefreshToken(pair.Access); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("ValidateRefreshToken(access) error = %v, want ErrWrongTokenType", err)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)

	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: "another_secret_that_is_long_enough_1234567890"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := other.GenerateTokenPair(testUser())
	if err != nil {
		t.Fatal(err)
	}

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		TokenType: TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongAlg, err := hs512.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"invalid token format", "invalid.token.format"},
		{"empty token", ""},
		{"wrong secret", foreign.Access},
		{"wrong algorithm", wrongAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.ValidateAccessToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	pair, err := m.GenerateTokenPair(testUser())
	if err != nil {
		t.Fatal(err)
	}
	m.now = time.Now
	if _, err := m.ValidateAccessToken(pair.Access); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccessToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshAndRevoke(t *testing.T) {
	t.Parallel()
	bl := NewMemoryBlacklist()
	m := newTestManager(t, bl)
	ctx := context.Background()

	pair, err := m.GenerateTokenPair(testUser())
	if err != nil {
		t.Fatal(err)
	}

	access, exp, err := m.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if exp.IsZero() {
		t.Error("Refresh() expiry is zero")
	}
	claims, err := m.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("refreshed access token invalid: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}

	if err := m.Revoke(ctx, pair.Refresh); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, _, err := m.Refresh(ctx, pair.Refresh); !errors.Is(err, ErrTokenBlacklisted) {
		t.Errorf("Refresh(revoked) error = %v, want ErrTokenBlacklisted", err)
	}
	if err := m.Revoke(ctx, pair.Access); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("Revoke(access) error = %v, want ErrWrongTokenType", err)
	}
}
