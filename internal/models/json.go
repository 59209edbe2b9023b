// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Calendar dates (release_date, date_of_birth) are written as 2006-01-02
// rather than RFC 3339 timestamps. Decoding accepts both, so cache entries
// written before the format change still load.

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if d, err := time.Parse(DateLayout, *s); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date %q", field, *s)
	}
	return &d, nil
}

type movieFields Movie

// MarshalJSON writes release_date as a calendar date.
func (m Movie) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		movieFields
		ReleaseDate *string `json:"release_date,omitempty"`
	}{movieFields(m), formatDate(m.ReleaseDate)})
}

// UnmarshalJSON reads release_date as a calendar date.
func (m *Movie) UnmarshalJSON(data []byte) error {
	var aux struct {
		*movieFields
		ReleaseDate *string `json:"release_date"`
	}
	aux.movieFields = (*movieFields)(m)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d, err := parseDate("release_date", aux.ReleaseDate)
	if err != nil {
		return err
	}
	m.ReleaseDate = d
	return nil
}

type userFields User

// MarshalJSON writes date_of_birth as a calendar date.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		userFields
		DateOfBirth *string `json:"date_of_birth,omitempty"`
	}{userFields(u), formatDate(u.DateOfBirth)})
}

// UnmarshalJSON reads date_of_birth as a calendar date.
func (u *User) UnmarshalJSON(data []byte) error {
	var aux struct {
		*userFields
		DateOfBirth *string `json:"date_of_birth"`
	}
	aux.userFields = (*userFields)(u)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d, err := parseDate("date_of_birth", aux.DateOfBirth)
	if err != nil {
		return err
	}
	u.DateOfBirth = d
	return nil
}

type preferenceFields UserPreferences

// MarshalJSON writes unset preference lists as [] rather than null.
func (p UserPreferences) MarshalJSON() ([]byte, error) {
	out := preferenceFields(p)
	if out.Genres == nil {
		out.Genres = []string{}
	}
	if out.Languages == nil {
		out.Languages = []string{}
	}
	if out.Countries == nil {
		out.Countries = []string{}
	}
	return json.Marshal(out)
}
