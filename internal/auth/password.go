// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the production hashing cost.
const BcryptCost = 12

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ErrPasswordTooShort is returned for passwords under MinPasswordLength.
var ErrPasswordTooShort = errors.New("This password is too short. It must contain at least 8 characters.") //nolint:revive,stylecheck // user-facing message

// hashCost is lowered in tests.
var hashCost = BcryptCost

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SetHashCostForTesting lowers the bcrypt cost and returns a restore func.
// Tests in other packages use it to keep hashing fast.
func SetHashCostForTesting(cost int) func() {
	prev := hashCost
	hashCost = cost
	return func() { hashCost = prev }
}
