// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/reelmatch/internal/accounts"
	"github.com/tomtom215/reelmatch/internal/models"
)

func TestProfile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	token := env.token(t, models.RoleUser)

	assertError(t, env.do(t, http.MethodGet, "/api/users/profile/", "", ""), http.StatusUnauthorized, ErrCodeUnauthorized)

	rec := env.do(t, http.MethodGet, "/api/users/profile/", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var u models.User
	decodeData(t, decodeEnvelope(t, rec), &u)
	if u.Username != "neo" || env.accounts.lastUID != 42 {
		t.Errorf("profile = %+v for uid %d, want neo for 42", u, env.accounts.lastUID)
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method      string
		wantPartial bool
	}{
		{http.MethodPut, false},
		{http.MethodPatch, true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)
			rec := env.do(t, tt.method, "/api/users/profile/", env.token(t, models.RoleUser), `{"bio":"Follow the white rabbit"}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
			var u models.User
			decodeData(t, decodeEnvelope(t, rec), &u)
			if u.Bio != "Follow the white rabbit" {
				t.Errorf("bio = %q, want updated bio", u.Bio)
			}
			if env.accounts.partial != tt.wantPartial {
				t.Errorf("partial = %v, want %v", env.accounts.partial, tt.wantPartial)
			}
		})
	}
}

func TestUpdateProfile_DecodeError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPatch, "/api/users/profile/", env.token(t, models.RoleUser), `{"email":null}`)
	e := assertError(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)
	if !strings.Contains(string(e.Error.Details), "email") {
		t.Errorf("details = %s, want email field", e.Error.Details)
	}
}

func TestPreferences(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.accounts.user.Preferences = models.UserPreferences{Genres: []string{"Action"}}
	token := env.token(t, models.RoleUser)

	rec := env.do(t, http.MethodGet, "/api/users/preferences/", token, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Action") {
		t.Fatalf("GET preferences = %d %s, want Action", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPatch, "/api/users/preferences/", token, `{"preferred_genres":["Drama"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var prefs models.UserPreferences
	decodeData(t, decodeEnvelope(t, rec), &prefs)
	if len(prefs.Genres) != 1 || prefs.Genres[0] != "Drama" {
		t.Errorf("genres = %v, want [Drama]", prefs.Genres)
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	token := env.token(t, models.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/users/change-password/", token,
		`{"old_password":"old-secret","new_password":"new-secret-1","new_password_confirm":"new-secret-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Password changed successfully") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if env.accounts.password.OldPassword != "old-secret" {
		t.Errorf("old password = %q, want old-secret", env.accounts.password.OldPassword)
	}

	env.accounts.err = &accounts.ValidationError{Fields: map[string]string{"old_password": "Old password is incorrect."}}
	e := assertError(t, env.do(t, http.MethodPost, "/api/users/change-password/", token, `{}`), http.StatusBadRequest, ErrCodeValidationFailed)
	if e.Error.Message != "Old password is incorrect." {
		t.Errorf("message = %q", e.Error.Message)
	}
}
