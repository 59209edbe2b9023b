// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/database"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/validation"
)

// Store is the user persistence the service needs. *database.DB implements it.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, upd *models.ProfileUpdate) (*models.User, error)
	UpdateUserPreferences(ctx context.Context, id int64, patch models.PreferencesPatch) (models.UserPreferences, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int64) error
}

// Tokens issues and revokes JWTs. *auth.JWTManager implements it.
type Tokens interface {
	GenerateTokenPair(u *models.User) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// Auditor records account events. *logging.AuthLogger and *audit.Logger
// implement it.
type Auditor interface {
	Registered(userID int64, email, ip string)
	LoginSucceeded(userID int64, email, ip string)
	LoginFailed(email, ip, reason string)
	LoggedOut(userID int64, ip string)
	TokenRefreshed(userID int64, success bool, reason string)
	PasswordChanged(userID int64, success bool, reason string)
}

// Service manages user accounts.
type Service struct {
	store    Store
	tokens   Tokens
	security *config.SecurityConfig
	audit    Auditor
	now      func() time.Time
}

// NewService creates an account service.
func NewService(store Store, tokens Tokens, security *config.SecurityConfig) *Service {
	if security == nil {
		security = &config.SecurityConfig{}
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		security: security,
		audit:    logging.NewAuthLogger(),
		now:      time.Now,
	}
}

// SetAuditor replaces the default log-only auditor.
func (s *Service) SetAuditor(a Auditor) {
	if a != nil {
		s.audit = a
	}
}

// RegisterInput is the body of POST /api/users/register/.
type RegisterInput struct {
	Email           string                  `json:"email" validate:"required,email,max=254"`
	Username        string                  `json:"username" validate:"required,max=150,username"`
	Password        string                  `json:"password" validate:"required"`
	PasswordConfirm string                  `json:"password_confirm" validate:"required"`
	FirstName       string                  `json:"first_name" validate:"max=150"`
	LastName        string                  `json:"last_name" validate:"max=150"`
	DateOfBirth     string                  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Bio             string                  `json:"bio" validate:"max=500"`
	Preferences     *models.UserPreferences `json:"preferences"`

	ClientIP string `json:"-"`
}

// LoginInput is the body of POST /api/users/login/ and /api/auth/token/.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	ClientIP string `json:"-"`
}

// ChangePasswordInput is the body of POST /api/users/change-password/.
type ChangePasswordInput struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// AuthResult is a user together with freshly issued tokens.
type AuthResult struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	verr := translate(validation.ValidateStruct(&in))
	if verr.errOrNil() == nil && in.Password != in.PasswordConfirm {
		verr.add(NonFieldErrors, msgPasswordMismatch)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, fieldError("password", err.Error())
	}
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Bio:          in.Bio,
		IsActive:     true,
		Role:         models.RoleUser,
	}
	if in.DateOfBirth != "" {
		dob, _ := time.Parse(models.DateLayout, in.DateOfBirth) //nolint:errcheck // validated above
		u.DateOfBirth = &dob
	}
	if in.Preferences != nil {
		u.Preferences = *in.Preferences
	}
	if s.security.IsAdminEmail(u.Email) {
		u.Role = models.RoleAdmin
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, duplicateToValidation(err)
	}
	s.audit.Registered(u.ID, u.Email, in.ClientIP)

	return s.signIn(ctx, u)
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := translate(validation.ValidateStruct(&in)).errOrNil(); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, database.ErrNotFound) {
		s.audit.LoginFailed(in.Email, in.ClientIP, "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		s.audit.LoginFailed(in.Email, in.ClientIP, "bad password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.audit.LoginFailed(in.Email, in.ClientIP, "inactive")
		return nil, ErrAccountDisabled
	}

	res, err := s.signIn(ctx, u)
	if err != nil {
		return nil, err
	}
	s.audit.LoginSucceeded(u.ID, u.Email, in.ClientIP)
	return res, nil
}

// ObtainToken is Login without the user body.
func (s *Service) ObtainToken(ctx context.Context, in LoginInput) (*auth.TokenPair, error) {
	res, err := s.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Tokens, nil
}

// signIn stamps last_login and issues a token pair.
func (s *Service) signIn(ctx context.Context, u *models.User) (*AuthResult, error) {
	if err := s.store.TouchLastLogin(ctx, u.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", u.ID).Msg("Failed to update last login")
	} else {
		now := s.now().UTC()
		u.LastLogin = &now
	}

	pair, err := s.tokens.GenerateTokenPair(u)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// RefreshResult is a new access token.
type RefreshResult struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"access_expires_at"`
}

// RefreshToken exchanges a refresh token for a new access token.
func (s *Service) RefreshToken(ctx context.Context, refresh string) (*RefreshResult, error) {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return nil, fieldError("refresh", msgRequired)
	}
	access, exp, err := s.tokens.Refresh(ctx, refresh)
	if err != nil {
		s.audit.TokenRefreshed(0, false, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &RefreshResult{Access: access, ExpiresAt: exp}, nil
}

// Logout blacklists a refresh token until it expires.
func (s *Service) Logout(ctx context.Context, userID int64, refresh, clientIP string) error {
	refresh = strings.TrimSpace(refresh)
	if refresh == "" {
		return ErrRefreshRequired
	}
	if err := s.tokens.Revoke(ctx, refresh); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Logout with unusable refresh token")
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	s.audit.LoggedOut(userID, clientIP)
	return nil
}

// Profile returns the user.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	normalizePreferences(&u.Preferences)
	return u, nil
}

// UpdateProfile applies in to the user. A full update (PUT) requires email
// and username; a partial update (PATCH) does not.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in *ProfileInput, partial bool) (*models.User, error) {
	upd, err := in.toUpdate(partial)
	if err != nil {
		return nil, err
	}

	u, err := s.store.UpdateUserProfile(ctx, userID, upd)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, duplicateToValidation(err)
	}
	normalizePreferences(&u.Preferences)
	return u, nil
}

// Preferences returns the user's recommendation preferences.
func (s *Service) Preferences(ctx context.Context, userID int64) (models.UserPreferences, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return models.UserPreferences{}, err
	}
	return u.Preferences, nil
}

// UpdatePreferences merges patch into the stored preferences.
func (s *Service) UpdatePreferences(ctx context.Context, userID int64, patch models.PreferencesPatch) (models.UserPreferences, error) {
	prefs, err := s.store.UpdateUserPreferences(ctx, userID, patch)
	if errors.Is(err, database.ErrNotFound) {
		return models.UserPreferences{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("update preferences: %w", err)
	}
	normalizePreferences(&prefs)
	return prefs, nil
}

// ChangePassword replaces the password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	verr := translate(validation.ValidateStruct(&in))
	if err := verr.errOrNil(); err != nil {
		return err
	}

	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, in.OldPassword) {
		verr.add("old_password", msgOldIncorrect)
	}
	if len(in.NewPassword) < auth.MinPasswordLength {
		verr.add("new_password", auth.ErrPasswordTooShort.Error())
	}
	if verr.errOrNil() == nil && in.NewPassword != in.NewPasswordConfirm {
		verr.add(NonFieldErrors, msgNewMismatch)
	}
	if err := verr.errOrNil(); err != nil {
		s.audit.PasswordChanged(userID, false, verr.Message())
		return err
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.audit.PasswordChanged(userID, true, "")
	return nil
}

// normalizeEmail trims the address and lowercases its domain.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func normalizePreferences(p *models.UserPreferences) {
	if p.Genres == nil {
		p.Genres = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	if p.Countries == nil {
		p.Countries = []string{}
	}
}

func duplicateToValidation(err error) error {
	switch database.DuplicateField(err) {
	case "email":
		return fieldError("email", msgEmailTaken)
	case "username":
		return fieldError("username", msgUsernameTaken)
	}
	return err
}

// translate maps struct validation failures onto account field messages.
func translate(verr *validation.RequestValidationError) *ValidationError {
	out := &ValidationError{}
	if verr == nil {
		return out
	}
	for _, fe := range verr.Errors() {
		out.add(fe.Field(), fieldMessage(fe.Tag(), fe.Param()))
	}
	return out
}

func fieldMessage(tag, param string) string {
	switch tag {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "username":
		return msgInvalidUsername
	case "max":
		return fmt.Sprintf(msgTooLong, param)
	case "datetime":
		return msgDateFormat
	}
	return "Invalid value."
}
