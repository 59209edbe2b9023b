// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Command secret prints fresh secrets in env-file form:
//
//	APP_SECRET_KEY=<50 chars>
//	JWT_SECRET=<64 chars>
package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
)

const (
	appSecretLength = 50
	jwtSecretLength = 64

	// secretAlphabet excludes quotes and whitespace.
	secretAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"
)

func main() {
	if err := writeSecrets(os.Stdout, rand.Reader); err != nil {
		fmt.Fprintf(os.Stderr, "generate secret: %v\n", err)
		os.Exit(1)
	}
}

func writeSecrets(w io.Writer, random io.Reader) error {
	app, err := randomString(random, appSecretLength)
	if err != nil {
		return err
	}
	jwt, err := randomString(random, jwtSecretLength)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "APP_SECRET_KEY=%s\nJWT_SECRET=%s\n", app, jwt)
	return err
}

// randomString draws n characters uniformly from secretAlphabet.
func randomString(random io.Reader, n int) (string, error) {
	limit := big.NewInt(int64(len(secretAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(random, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = secretAlphabet[idx.Int64()]
	}
	return string(out), nil
}
