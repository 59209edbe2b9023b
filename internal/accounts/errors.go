// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package accounts

import (
	"errors"
	"sort"
	"strings"
)

//nolint:revive,stylecheck // user-facing messages
var (
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrAccountDisabled    = errors.New("User account is disabled.")
	ErrRefreshRequired    = errors.New("Refresh token is required")
	ErrInvalidToken       = errors.New("Invalid token")
	ErrUserNotFound       = errors.New("User not found")
)

// Field messages.
const (
	msgRequired         = "This field is required."
	msgInvalidEmail     = "Enter a valid email address."
	msgInvalidUsername  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgTooLong          = "Ensure this field has no more than %s characters."
	msgDateFormat       = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgNotNull          = "This field may not be null."
	msgNotString        = "Not a valid string."
	msgPasswordMismatch = "Passwords don't match."
	msgNewMismatch      = "New passwords don't match."
	msgOldIncorrect     = "Old password is incorrect."
	msgEmailTaken       = "A user with this email already exists."
	msgUsernameTaken    = "A user with this username already exists."
)

// NonFieldErrors is the key for errors not tied to one field.
const NonFieldErrors = "non_field_errors"

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Message returns a single representative message, preferring
// non_field_errors.
func (e *ValidationError) Message() string {
	if msg, ok := e.Fields[NonFieldErrors]; ok {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "Invalid input"
	}
	return e.Fields[keys[0]]
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// errOrNil returns e when it holds at least one field.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// AsValidationError unwraps a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
