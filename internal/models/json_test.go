// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestMovie_JSONReleaseDate(t *testing.T) {
	t.Parallel()

	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data, err := json.Marshal(&Movie{TMDbID: 603, Title: "The Matrix", ReleaseDate: &d})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"release_date":"2020-01-01"`) {
		t.Errorf("Marshal() = %s, want release_date 2020-01-01", body)
	}
	if strings.Count(body, `"release_date"`) != 1 {
		t.Errorf("Marshal() = %s, want one release_date key", body)
	}
	if !strings.Contains(body, `"title":"The Matrix"`) {
		t.Errorf("Marshal() = %s, want other fields kept", body)
	}

	var back Movie
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.ReleaseDate == nil || !back.ReleaseDate.Equal(d) || back.TMDbID != 603 {
		t.Errorf("Unmarshal() = %+v", back)
	}

	none, _ := json.Marshal(Movie{Title: "Untitled"})
	if strings.Contains(string(none), "release_date") {
		t.Errorf("Marshal() = %s, want release_date omitted", none)
	}
}

func TestMovie_UnmarshalDateFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"calendar date", `{"release_date":"1999-03-31"}`, "1999-03-31", false},
		{"timestamp", `{"release_date":"1999-03-31T00:00:00Z"}`, "1999-03-31", false},
		{"empty", `{"release_date":""}`, "", false},
		{"null", `{"release_date":null}`, "", false},
		{"garbage", `{"release_date":"soon"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Movie
			err := json.Unmarshal([]byte(tt.in), &m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := m.ReleaseDateString(); !tt.wantErr && got != tt.want {
				t.Errorf("ReleaseDateString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_JSON(t *testing.T) {
	t.Parallel()

	dob := time.Date(1971, 9, 13, 0, 0, 0, 0, time.UTC)
	data, err := json.Marshal(&User{ID: 1, Email: "neo@example.com", DateOfBirth: &dob})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(data)
	for _, want := range []string{
		`"date_of_birth":"1971-09-13"`,
		`"preferred_genres":[]`,
		`"preferred_languages":[]`,
		`"preferred_countries":[]`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Marshal() = %s, want %s", body, want)
		}
	}
	if strings.Contains(body, "password") {
		t.Errorf("Marshal() = %s, leaks password hash", body)
	}

	var back User
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.DateOfBirth == nil || !back.DateOfBirth.Equal(dob) || back.Email != "neo@example.com" {
		t.Errorf("Unmarshal() = %+v", back)
	}
}

func TestUserPreferences_JSONKeepsValues(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(UserPreferences{Genres: []string{"Drama"}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"preferred_genres":["Drama"],"preferred_languages":[],"preferred_countries":[]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
