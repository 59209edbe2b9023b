// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed five-field cron expression:
// minute hour day-of-month month day-of-week.
type Schedule struct {
	expr    string
	minute  fieldSet
	hour    fieldSet
	dom     fieldSet
	month   fieldSet
	dow     fieldSet
	domStar bool
	dowStar bool
}

// fieldSet is a bitmask of allowed values (0-63).
type fieldSet uint64

func (s fieldSet) has(v int) bool { return s&(1<<uint(v)) != 0 }

// values returns the set members in ascending order.
func (s fieldSet) values() []int {
	var out []int
	for v := 0; v < 64; v++ {
		if s.has(v) {
			out = append(out, v)
		}
	}
	return out
}

type bounds struct {
	name     string
	min, max int
}

var (
	minuteBounds = bounds{"minute", 0, 59}
	hourBounds   = bounds{"hour", 0, 23}
	domBounds    = bounds{"day-of-month", 1, 31}
	monthBounds  = bounds{"month", 1, 12}
	dowBounds    = bounds{"day-of-week", 0, 7}
)

// Parse parses a cron expression. Each field accepts *, n, n-m, comma
// lists, and /step on * or a range. Day-of-week 7 is Sunday.
//
// Examples:
//   - "0 2 * * *" - daily at 02:00
//   - "30 * * * *" - hourly at :30
//   - "*/15 9-17 * * 1-5" - every 15 minutes during weekday office hours
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q must have 5 fields, got %d", expr, len(fields))
	}

	s := &Schedule{expr: strings.Join(fields, " ")}
	targets := []struct {
		dst *fieldSet
		b   bounds
	}{
		{&s.minute, minuteBounds},
		{&s.hour, hourBounds},
		{&s.dom, domBounds},
		{&s.month, monthBounds},
		{&s.dow, dowBounds},
	}
	for i, tg := range targets {
		set, err := parseField(fields[i], tg.b)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", tg.b.name, err)
		}
		*tg.dst = set
	}

	if s.dow.has(7) {
		s.dow = (s.dow &^ (1 << 7)) | 1
	}
	s.domStar = fields[2] == "*"
	s.dowStar = fields[4] == "*"
	return s, nil
}

// MustParse is Parse for constant expressions.
func MustParse(expr string) *Schedule {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the normalized expression.
func (s *Schedule) String() string { return s.expr }

// Minutes returns the allowed minutes, ascending.
func (s *Schedule) Minutes() []int { return s.minute.values() }

// Hours returns the allowed hours, ascending.
func (s *Schedule) Hours() []int { return s.hour.values() }

func parseField(field string, b bounds) (fieldSet, error) {
	var set fieldSet
	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return 0, fmt.Errorf("empty list element in %q", field)
		}
		s, err := parsePart(part, b)
		if err != nil {
			return 0, err
		}
		set |= s
	}
	return set, nil
}

func parsePart(part string, b bounds) (fieldSet, error) {
	rangeExpr, step := part, 1
	if i := strings.IndexByte(part, '/'); i >= 0 {
		rangeExpr = part[:i]
		n, err := strconv.Atoi(part[i+1:])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step value: %s", part[i+1:])
		}
		step = n
	}

	lo, hi := b.min, b.max
	switch {
	case rangeExpr == "*":
	case strings.Contains(rangeExpr, "-"):
		a, z, _ := strings.Cut(rangeExpr, "-")
		var err error
		if lo, err = atoiIn(a, b); err != nil {
			return 0, err
		}
		if hi, err = atoiIn(z, b); err != nil {
			return 0, err
		}
		if lo > hi {
			return 0, fmt.Errorf("invalid range: %d-%d", lo, hi)
		}
	default:
		v, err := atoiIn(rangeExpr, b)
		if err != nil {
			return 0, err
		}
		lo = v
		if step == 1 {
			hi = v
		}
	}

	var set fieldSet
	for v := lo; v <= hi; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

func atoiIn(s string, b bounds) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value: %s", s)
	}
	if v < b.min || v > b.max {
		return 0, fmt.Errorf("value out of range: %d (%d-%d)", v, b.min, b.max)
	}
	return v, nil
}

// dayMatches applies cron's day rule: when both day fields are restricted,
// either may match.
func (s *Schedule) dayMatches(t time.Time) bool {
	dom := s.dom.has(t.Day())
	dow := s.dow.has(int(t.Weekday()))
	switch {
	case s.domStar && s.dowStar:
		return true
	case s.domStar:
		return dow
	case s.dowStar:
		return dom
	default:
		return dom || dow
	}
}

// NextRun returns the first matching minute strictly after after, in loc
// (UTC when nil). It returns the zero time if nothing matches within five
// years, e.g. "0 0 30 2 *".
func (s *Schedule) NextRun(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := after.In(loc).Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(5, 0, 0)

	hours := s.hour.values()
	minutes := s.minute.values()

	for t.Before(limit) {
		if !s.month.has(int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
			continue
		}
		if !s.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			continue
		}
		if !s.hour.has(t.Hour()) {
			h := nextValue(hours, t.Hour())
			if h < 0 {
				t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			} else {
				t = time.Date(t.Year(), t.Month(), t.Day(), h, 0, 0, 0, loc)
			}
			continue
		}
		if !s.minute.has(t.Minute()) {
			m := nextValue(minutes, t.Minute())
			if m < 0 {
				t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
			} else {
				t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, 0, 0, loc)
			}
			continue
		}
		if !t.After(after) {
			// Wall-clock arithmetic moved back across a DST fold.
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

// nextValue returns the smallest element of sorted greater than v, or -1.
func nextValue(sorted []int, v int) int {
	i := sort.SearchInts(sorted, v+1)
	if i == len(sorted) {
		return -1
	}
	return sorted[i]
}
