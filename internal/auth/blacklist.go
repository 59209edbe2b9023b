// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// BlacklistKeyPrefix namespaces revoked JTIs in a shared badger database.
const BlacklistKeyPrefix = "blacklist:"

// ErrBlacklistClosed is returned after Close.
var ErrBlacklistClosed = errors.New("token blacklist is closed")

// Blacklist stores revoked token IDs until they expire.
type Blacklist interface {
	// Revoke marks jti as revoked for ttl.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether jti is currently revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// CleanupExpired removes expired entries and returns how many it removed.
	CleanupExpired(ctx context.Context) (int, error)

	Close() error
}

// MemoryBlacklist keeps revocations in a map. Entries are lost on restart.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> expiry
	closed  bool
	now     func() time.Time
}

// NewMemoryBlacklist creates an empty in-memory blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke stores jti until now+ttl.
func (b *MemoryBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		RecordBlacklistOperation("revoke", "failure")
		return ErrBlacklistClosed
	}
	b.entries[jti] = b.now().Add(ttl)
	RecordBlacklistOperation("revoke", "success")
	return nil
}

// IsRevoked reports whether jti is revoked and unexpired.
func (b *MemoryBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false, ErrBlacklistClosed
	}
	exp, ok := b.entries[jti]
	if !ok || b.now().After(exp) {
		RecordBlacklistOperation("check", "success")
		return false, nil
	}
	RecordBlacklistOperation("check", "revoked")
	return true, nil
}

// CleanupExpired removes expired entries.
func (b *MemoryBlacklist) CleanupExpired(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBlacklistClosed
	}
	count := 0
	now := b.now()
	for jti, exp := range b.entries {
		if now.After(exp) {
			delete(b.entries, jti)
			count++
		}
	}
	RecordBlacklistOperation("cleanup", "success")
	BlacklistCleanedUp.Add(float64(count))
	return count, nil
}

// Len returns the number of stored entries, expired or not.
func (b *MemoryBlacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Close drops all entries.
func (b *MemoryBlacklist) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.entries = nil
	return nil
}

// BadgerBlacklist persists revocations in badger. Entries carry a native
// TTL, so expired JTIs disappear without CleanupExpired; CleanupExpired runs
// value log GC to reclaim their space.
type BadgerBlacklist struct {
	db     *badger.DB
	prefix []byte
	closed bool
	mu     sync.RWMutex
}

// NewBadgerBlacklist wraps a shared badger database. The database is not
// closed by Close.
func NewBadgerBlacklist(db *badger.DB) *BadgerBlacklist {
	return &BadgerBlacklist{
		db:     db,
		prefix: []byte(BlacklistKeyPrefix),
	}
}

func (b *BadgerBlacklist) key(jti string) []byte {
	return append(append([]byte{}, b.prefix...), jti...)
}

func (b *BadgerBlacklist) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Revoke stores the JTI with a badger TTL.
func (b *BadgerBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if b.isClosed() {
		RecordBlacklistOperation("revoke", "failure")
		return ErrBlacklistClosed
	}

	expires := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(b.key(jti), []byte(expires)).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		RecordBlacklistOperation("revoke", "failure")
		return fmt.Errorf("revoke token: %w", err)
	}
	RecordBlacklistOperation("revoke", "success")
	return nil
}

// IsRevoked reports whether the JTI is present.
func (b *BadgerBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	if b.isClosed() {
		return false, ErrBlacklistClosed
	}

	var revoked bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(b.key(jti))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		revoked = true
		return nil
	})
	if err != nil {
		RecordBlacklistOperation("check", "failure")
		return false, fmt.Errorf("check token: %w", err)
	}
	if revoked {
		RecordBlacklistOperation("check", "revoked")
	} else {
		RecordBlacklistOperation("check", "success")
	}
	return revoked, nil
}

// CleanupExpired counts the expired keys still visible under the prefix,
// deletes them, and runs value log GC.
func (b *BadgerBlacklist) CleanupExpired(context.Context) (int, error) {
	if b.isClosed() {
		return 0, ErrBlacklistClosed
	}

	count := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = b.prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if item.IsDeletedOrExpired() {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		for _, k := range expired {
			if err := txn.Delete(k); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		RecordBlacklistOperation("cleanup", "failure")
		return count, fmt.Errorf("cleanup blacklist: %w", err)
	}

	if err := b.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Debug().Err(err).Msg("Badger value log GC skipped")
	}
	RecordBlacklistOperation("cleanup", "success")
	BlacklistCleanedUp.Add(float64(count))
	return count, nil
}

// Close marks the blacklist closed.
func (b *BadgerBlacklist) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// OpenBadger opens the badger database at path, or in memory when inMemory
// is set.
func OpenBadger(path string, inMemory bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

var (
	_ Blacklist = (*MemoryBlacklist)(nil)
	_ Blacklist = (*BadgerBlacklist)(nil)
)
