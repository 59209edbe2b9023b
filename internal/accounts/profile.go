// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package accounts

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/models"
	"github.com/tomtom215/reelmatch/internal/validation"
)

// ProfileInput is a decoded profile update. Nil fields were absent from the
// request body.
type ProfileInput struct {
	Email       *string
	Username    *string
	FirstName   *string
	LastName    *string
	DateOfBirth *string // "" clears the date
	Bio         *string
	Avatar      *string
	Preferences models.PreferencesPatch
}

// profileFields is validated with the shared validator. Absent fields are
// left empty and skipped via omitempty.
type profileFields struct {
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Username    string `json:"username" validate:"omitempty,max=150,username"`
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Bio         string `json:"bio" validate:"max=500"`
	Avatar      string `json:"avatar" validate:"max=500"`
}

type listField struct {
	key      string
	listMsg  string
	itemMsg  string
	setPatch func(p *models.PreferencesPatch, v *[]string)
}

var preferenceFields = []listField{
	{"preferred_genres", "Preferred genres must be a list.", "All genres must be strings.",
		func(p *models.PreferencesPatch, v *[]string) { p.Genres = v }},
	{"preferred_languages", "Preferred languages must be a list.", "All languages must be strings.",
		func(p *models.PreferencesPatch, v *[]string) { p.Languages = v }},
	{"preferred_countries", "Preferred countries must be a list.", "All countries must be strings.",
		func(p *models.PreferencesPatch, v *[]string) { p.Countries = v }},
}

// DecodeProfileInput parses a profile update body. Read-only and unknown
// keys are ignored.
func DecodeProfileInput(body []byte) (*ProfileInput, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	in := &ProfileInput{}
	verr := &ValidationError{}
	textFields := []struct {
		key      string
		dst      **string
		nullable bool
	}{
		{"email", &in.Email, false},
		{"username", &in.Username, false},
		{"first_name", &in.FirstName, false},
		{"last_name", &in.LastName, false},
		{"date_of_birth", &in.DateOfBirth, true},
		{"bio", &in.Bio, false},
		{"avatar", &in.Avatar, false},
	}
	for _, f := range textFields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if string(v) == "null" {
			if !f.nullable {
				verr.add(f.key, msgNotNull)
				continue
			}
			empty := ""
			*f.dst = &empty
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			verr.add(f.key, msgNotString)
			continue
		}
		*f.dst = &s
	}

	in.Preferences = decodePreferences(raw, verr)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}
	return in, nil
}

// DecodePreferencesPatch parses a preferences update body. Only the lists
// present in the body are changed.
func DecodePreferencesPatch(body []byte) (models.PreferencesPatch, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return models.PreferencesPatch{}, err
	}
	verr := &ValidationError{}
	patch := decodePreferences(raw, verr)
	if err := verr.errOrNil(); err != nil {
		return models.PreferencesPatch{}, err
	}
	return patch, nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	raw := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(body))) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fieldError(NonFieldErrors, "Invalid JSON body.")
	}
	return raw, nil
}

func decodePreferences(raw map[string]json.RawMessage, verr *ValidationError) models.PreferencesPatch {
	var patch models.PreferencesPatch
	for _, f := range preferenceFields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil || string(v) == "null" {
			verr.add(f.key, f.listMsg)
			continue
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				verr.add(f.key, f.itemMsg)
				break
			}
			list = append(list, s)
		}
		f.setPatch(&patch, &list)
	}
	return patch
}

// toUpdate validates the input and converts it to a store update.
func (in *ProfileInput) toUpdate(partial bool) (*models.ProfileUpdate, error) {
	verr := &ValidationError{}
	if !partial {
		if in.Email == nil {
			verr.add("email", msgRequired)
		}
		if in.Username == nil {
			verr.add("username", msgRequired)
		}
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
		if e == "" {
			verr.add("email", msgRequired)
		}
	}
	if in.Username != nil {
		u := strings.TrimSpace(*in.Username)
		in.Username = &u
		if u == "" {
			verr.add("username", msgRequired)
		}
	}

	fields := profileFields{
		Email:       deref(in.Email),
		Username:    deref(in.Username),
		FirstName:   deref(in.FirstName),
		LastName:    deref(in.LastName),
		DateOfBirth: deref(in.DateOfBirth),
		Bio:         deref(in.Bio),
		Avatar:      deref(in.Avatar),
	}
	for field, msg := range translate(validation.ValidateStruct(&fields)).Fields {
		verr.add(field, msg)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	upd := &models.ProfileUpdate{
		Email:       in.Email,
		Username:    in.Username,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Bio:         in.Bio,
		Avatar:      in.Avatar,
		Preferences: in.Preferences,
	}
	if in.DateOfBirth != nil {
		var dob *time.Time
		if *in.DateOfBirth != "" {
			t, _ := time.Parse(models.DateLayout, *in.DateOfBirth) //nolint:errcheck // validated above
			dob = &t
		}
		upd.DateOfBirth = &dob
	}
	return upd, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
