// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package models

import (
	"strings"
	"time"
)

// Roles understood by the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxBioLength bounds User.Bio.
const MaxBioLength = 500

// User is an account. Email is the login identifier.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Bio          string     `json:"bio"`
	Avatar       string     `json:"avatar"`
	IsActive     bool       `json:"is_active"`
	Role         string     `json:"role"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Preferences UserPreferences `json:"preferences"`
}

// UserPreferences drive content-based recommendations. Genres are TMDb
// genre names such as "Science Fiction".
type UserPreferences struct {
	Genres    []string `json:"preferred_genres"`
	Languages []string `json:"preferred_languages"`
	Countries []string `json:"preferred_countries"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PreferredGenresDisplay joins genres with ", " or returns "None".
func (u *User) PreferredGenresDisplay() string {
	return displayList(u.Preferences.Genres)
}

// PreferredLanguagesDisplay joins languages with ", " or returns "None".
func (u *User) PreferredLanguagesDisplay() string {
	return displayList(u.Preferences.Languages)
}

func displayList(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// PreferencesPatch is a partial preferences update; nil fields are kept.
type PreferencesPatch struct {
	Genres    *[]string
	Languages *[]string
	Countries *[]string
}

// Apply returns p merged over current.
func (p PreferencesPatch) Apply(current UserPreferences) UserPreferences {
	out := current
	if p.Genres != nil {
		out.Genres = *p.Genres
	}
	if p.Languages != nil {
		out.Languages = *p.Languages
	}
	if p.Countries != nil {
		out.Countries = *p.Countries
	}
	return out
}

// ProfileUpdate carries editable profile fields. For a partial update, nil
// fields keep their current value.
type ProfileUpdate struct {
	Email       *string
	Username    *string
	FirstName   *string
	LastName    *string
	DateOfBirth **time.Time
	Bio         *string
	Avatar      *string
	Preferences PreferencesPatch
}

// Apply returns a copy of u with the update applied.
func (p *ProfileUpdate) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = *p.DateOfBirth
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	u.Preferences = p.Preferences.Apply(u.Preferences)
	return u
}
