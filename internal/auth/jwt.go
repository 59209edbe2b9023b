// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/models"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Token errors.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token is expired")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrTokenBlacklisted = errors.New("token is blacklisted")
)

// Claims represents JWT claims. The subject is the decimal user ID.
type Claims struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token holder has the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// TokenPair is the result of a login or registration.
type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  Blacklist
	now        func() time.Time
}

// NewJWTManager creates a token manager. blacklist may be nil, in which case
// refresh tokens cannot be revoked.
func NewJWTManager(cfg *config.SecurityConfig, blacklist Blacklist) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	accessTTL, refreshTTL := cfg.AccessTokenTTL, cfg.RefreshTokenTTL
	if accessTTL <= 0 {
		accessTTL = 60 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &JWTManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		blacklist:  blacklist,
		now:        time.Now,
	}, nil
}

// GenerateTokenPair signs a fresh access and refresh token for the user.
func (m *JWTManager) GenerateTokenPair(u *models.User) (*TokenPair, error) {
	access, accessExp, err := m.sign(u, TokenAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := m.sign(u, TokenRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *JWTManager) sign(u *models.User, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	AuthTokensIssued.WithLabelValues(string(typ)).Inc()
	return signed, exp, nil
}

// ValidateAccessToken parses an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, TokenAccess)
}

// ValidateRefreshToken parses a refresh token. It does not consult the
// blacklist; Refresh and Revoke do.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, TokenRefresh)
}

// validate rejects any algorithm other than HS256.
func (m *JWTManager) validate(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			AuthValidationFailures.WithLabelValues("expired").Inc()
			return nil, ErrTokenExpired
		}
		AuthValidationFailures.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		AuthValidationFailures.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		AuthValidationFailures.WithLabelValues("wrong_type").Inc()
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (m *JWTManager) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := m.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if m.blacklist != nil {
		revoked, err := m.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("check blacklist: %w", err)
		}
		if revoked {
			AuthValidationFailures.WithLabelValues("revoked").Inc()
			return "", time.Time{}, ErrTokenBlacklisted
		}
	}

	u := &models.User{ID: claims.UserID, Email: claims.Email, Username: claims.Username, Role: claims.Role}
	return m.sign(u, TokenAccess, m.accessTTL)
}

// Revoke blacklists a refresh token for the rest of its lifetime.
func (m *JWTManager) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := m.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if m.blacklist == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.blacklist.Revoke(ctx, claims.ID, ttl)
}
