// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/models"
)

// testDBSemaphore limits concurrent DuckDB instances. The semaphore is held
// until the test completes, so only one test has an open connection.
var testDBSemaphore = make(chan struct{}, 1)

var testDBMutex sync.Mutex

// setupTestDB creates an in-memory database and closes it on cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

// fixClock pins db.now and returns the pinned time.
func fixClock(db *DB, at time.Time) time.Time {
	db.now = func() time.Time { return at }
	return at.UTC().Truncate(time.Microsecond)
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkNotFound(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

// insertMovie upserts a movie with sensible defaults.
func insertMovie(t *testing.T, db *DB, tmdbID int64, title string, popularity, vote float64, genres ...int) *models.Movie {
	t.Helper()
	m := &models.Movie{
		TMDbID:      tmdbID,
		Title:       title,
		Popularity:  popularity,
		VoteAverage: vote,
		VoteCount:   500,
		GenreIDs:    genres,
	}
	checkNoError(t, db.UpsertMovie(context.Background(), m))
	return m
}

func insertUser(t *testing.T, db *DB, email, username string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: "hash",
		IsActive:     true,
	}
	checkNoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestNew_InMemory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	checkNoError(t, db.Ping(ctx))

	v, err := db.SchemaVersion(ctx)
	checkNoError(t, err)
	if v != schemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", v, schemaVersion)
	}

	// Schema creation is idempotent.
	checkNoError(t, db.createTables())
	checkNoError(t, db.runVersionedMigrations())

	if db.Path() != ":memory:" {
		t.Errorf("Path() = %q, want :memory:", db.Path())
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "nested", "dir", "reelmatch.duckdb")
	db, err := New(&config.DatabaseConfig{Path: path, MaxMemory: "512MB", Threads: 1})
	checkNoError(t, err)
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("database directory not created: %v", err)
	}
	checkNoError(t, db.Checkpoint(context.Background()))
}

func TestEnsureContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := ensureContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("ensureContext() without deadline should add one")
	}

	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()
	ctx2, cancel2 := ensureContext(parent)
	defer cancel2()
	want, _ := parent.Deadline()
	if got, _ := ctx2.Deadline(); !got.Equal(want) {
		t.Errorf("deadline = %v, want parent deadline %v", got, want)
	}
}

func TestDuplicateError(t *testing.T) {
	t.Parallel()

	var err error = &DuplicateError{Field: "email"}
	if !errors.Is(err, ErrDuplicate) {
		t.Error("DuplicateError should wrap ErrDuplicate")
	}
	if !errors.Is(err, models.ErrDuplicate) {
		t.Error("DuplicateError should wrap models.ErrDuplicate")
	}
	if got := DuplicateField(err); got != "email" {
		t.Errorf("DuplicateField() = %q, want email", got)
	}
	if got := DuplicateField(errors.New("other")); got != "" {
		t.Errorf("DuplicateField(other) = %q, want empty", got)
	}
	if err.Error() != "duplicate email" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGenreIDCodec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []int
	}{
		{"[28,12]", []int{28, 12}},
		{"[28, 12, 878]", []int{28, 12, 878}},
		{"[]", []int{}},
		{"", []int{}},
		{"[28, x, 12]", []int{28, 12}},
	}
	for _, tt := range tests {
		got := decodeGenreIDs(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("decodeGenreIDs(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("decodeGenreIDs(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}

	if got := encodeGenreIDs([]int{28, 12}); got != "[28,12]" {
		t.Errorf("encodeGenreIDs() = %q, want [28,12]", got)
	}
	if got := encodeGenreIDs(nil); got != "[]" {
		t.Errorf("encodeGenreIDs(nil) = %q, want []", got)
	}
}

func TestBuildMovieOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		keys []string
		want string
	}{
		{nil, " ORDER BY popularity DESC NULLS LAST, vote_average DESC NULLS LAST, id ASC"},
		{[]string{"title"}, " ORDER BY title ASC NULLS LAST, id ASC"},
		{[]string{"-release_date", "bogus"}, " ORDER BY release_date DESC NULLS LAST, id ASC"},
		{[]string{"; DROP TABLE movies"}, " ORDER BY id ASC"},
	}
	for _, tt := range tests {
		if got := buildMovieOrder(tt.keys); got != tt.want {
			t.Errorf("buildMovieOrder(%v) = %q, want %q", tt.keys, got, tt.want)
		}
	}
}
