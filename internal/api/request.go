// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/auth"
	"github.com/tomtom215/reelmatch/internal/validation"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// readBody returns the request body, enforcing MaxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched so required-field validation reports the missing fields. On
// failure it writes a 400 and returns false.
func decodeJSON(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := readBody(w, r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		rw.BadRequest("Failed to read request body")
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		rw.BadRequest("Invalid JSON request body")
		return false
	}
	return true
}

// validateQuery runs struct validation and writes a 400 on failure.
func validateQuery(rw *ResponseWriter, q any) bool {
	verr := validation.ValidateStruct(q)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rw.ValidationError(apiErr.Message, apiErr.Details)
	return false
}

// queryParser reads typed query parameters and collects parse failures so
// one response can report all of them.
type queryParser struct {
	values url.Values
	errs   map[string]string
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (p *queryParser) fail(name, msg string) {
	if p.errs == nil {
		p.errs = make(map[string]string)
	}
	p.errs[name] = msg
}

func (p *queryParser) raw(name string) (string, bool) {
	v := strings.TrimSpace(p.values.Get(name))
	return v, v != ""
}

// String returns the trimmed value, or def when absent.
func (p *queryParser) String(name, def string) string {
	if v, ok := p.raw(name); ok {
		return v
	}
	return def
}

// Int returns def when absent.
func (p *queryParser) Int(name string, def int) int {
	if v := p.OptionalInt(name); v != nil {
		return *v
	}
	return def
}

// OptionalInt returns nil when absent or malformed.
func (p *queryParser) OptionalInt(name string) *int {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, "A valid integer is required.")
		return nil
	}
	return &n
}

// OptionalFloat returns nil when absent or malformed.
func (p *queryParser) OptionalFloat(name string) *float64 {
	v, ok := p.raw(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(name, "A valid number is required.")
		return nil
	}
	return &f
}

// ok writes a 400 listing every malformed parameter and returns false.
func (p *queryParser) ok(rw *ResponseWriter) bool {
	if len(p.errs) == 0 {
		return true
	}
	rw.ValidationError("Invalid query parameters", p.errs)
	return false
}

// int64Param parses a positive integer path parameter.
func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// userID returns the authenticated user. Routes that call it sit behind
// Authenticate, so a missing claim is a wiring bug and reported as 401.
func userID(rw *ResponseWriter, r *http.Request) (int64, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication credentials were not provided.")
		return 0, false
	}
	return claims.UserID, true
}

// optionalUserID returns nil for anonymous requests.
func optionalUserID(r *http.Request) *int64 {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	id := claims.UserID
	return &id
}

// clientIP returns the remote host after RealIP has run.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
