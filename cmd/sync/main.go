// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Command sync pulls TMDb trending and popular pages into the local catalog.
//
//	sync --pages 5 --categories trending,popular --genres
//
// Only one sync runs at a time per database: a lock file next to the
// DuckDB file is held for the duration of the run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/tomtom215/reelmatch/internal/cache"
	"github.com/tomtom215/reelmatch/internal/catalog"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/database"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/tasks"
	"github.com/tomtom215/reelmatch/internal/tmdb"
)

const lockRetryInterval = 100 * time.Millisecond

var errNoAPIKey = errors.New("TMDb API key not configured, set TMDB_API_KEY")

type options struct {
	pages      int
	categories []string
	genres     bool
	wait       time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := options{}
	var categories string
	fs.IntVar(&opts.pages, "pages", 5, "number of pages to fetch for each category")
	fs.StringVar(&categories, "categories", "trending,popular", "comma separated categories to sync (trending, popular)")
	fs.BoolVar(&opts.genres, "genres", false, "also sync genres from TMDb")
	fs.DurationVar(&opts.wait, "lock-wait", 0, "how long to wait for a running sync to finish (0 fails immediately)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.pages < 1 {
		return options{}, fmt.Errorf("--pages must be at least 1, got %d", opts.pages)
	}
	for _, c := range strings.Split(categories, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if c != tasks.CategoryTrending && c != tasks.CategoryPopular {
			return options{}, fmt.Errorf("unknown category %q (valid: trending, popular)", c)
		}
		opts.categories = append(opts.categories, c)
	}
	if len(opts.categories) == 0 {
		return options{}, errors.New("--categories must name at least one category")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	if cfg.TMDb.APIKey == "" {
		return errNoAPIKey
	}

	lock, err := acquireLock(ctx, lockPath(cfg.Database.Path), opts.wait)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Close() }()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	backend, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if c, ok := backend.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	api := tmdb.NewCachedClient(tmdb.NewClient(&cfg.TMDb), backend)
	jobs := tasks.New(tasks.Deps{
		TMDb:      api,
		ListCache: api,
		Catalog:   catalog.NewService(api, db, cfg.TMDb.ImageBaseURL),
		Store:     db,
		Cache:     backend,
		Progress:  progressPrinter{w: stdout},
		Sync:      cfg.Sync,
	})

	fmt.Fprintln(stdout, "Starting TMDb data sync...")
	if opts.genres {
		fmt.Fprintln(stdout, "Syncing genres...")
		res, err := jobs.SyncGenres(ctx)
		if err != nil {
			return err
		}
		created, _ := res.Data["created"].(int)
		fmt.Fprintf(stdout, "Synced %d new genres\n", created)
	}

	res, err := jobs.SyncTMDbData(ctx, opts.categories, opts.pages)
	if err != nil {
		return err
	}
	synced, _ := res.Data["synced"].(int)
	fmt.Fprintf(stdout, "Total movies synced: %d\n", synced)
	if failed, _ := res.Data["failed_pages"].(int); failed > 0 {
		return fmt.Errorf("%d pages failed to sync", failed)
	}
	fmt.Fprintln(stdout, "TMDb data sync completed!")
	return nil
}

// progressPrinter writes per-category and per-page sync progress.
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) CategoryStarted(category string) {
	fmt.Fprintf(p.w, "Syncing %s movies...\n", category)
}

func (p progressPrinter) PageSynced(_ string, page, received, synced int) {
	if received == 0 {
		fmt.Fprintf(p.w, "  Page %d: No data received\n", page)
		return
	}
	fmt.Fprintf(p.w, "  Page %d: %d movies synced\n", page, synced)
}

func (p progressPrinter) PageFailed(_ string, page int, err error) {
	fmt.Fprintf(p.w, "  Page %d: Error - %v\n", page, err)
}

func (p progressPrinter) CategoryFinished(category string, synced int) {
	fmt.Fprintf(p.w, "Synced %d %s movies\n", synced, category)
}

// lockPath places the lock beside the database file.
func lockPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), ".reelmatch-sync.lock")
}

// acquireLock takes the exclusive sync lock. With wait 0 it fails at once
// when another process holds it.
func acquireLock(ctx context.Context, path string, wait time.Duration) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)

	if wait <= 0 {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring sync lock %s: %w", path, err)
		}
		if !locked {
			return nil, fmt.Errorf("another sync is running (lock %s held)", path)
		}
		return fl, nil
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring sync lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquiring sync lock %s: lock not acquired", path)
	}
	return fl, nil
}
