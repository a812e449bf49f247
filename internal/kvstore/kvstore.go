// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// BackendName labels Badger in logs and metrics.
const BackendName = "badger"

// Key prefixes.
const (
	prefixRecord   = "rec/"
	prefixUser     = "user/"
	keySettings    = "settings/1"
	defaultGCRatio = 0.5
)

// Store implements store.Store on an embedded Badger database.
type Store struct {
	db  *badger.DB
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the Badger database in dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("kvstore: path required")
	}
	opts := badger.DefaultOptions(dir)
	opts.Compression = options.Snappy
	return open(opts, dir)
}

// OpenInMemory opens a Badger database that is never written to disk.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), "memory")
}

func open(opts badger.Options, display string) (*Store, error) {
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().Str("path", display).Msg("Badger store opened")
	return &Store{db: db, now: time.Now}, nil
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return BackendName
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// recordKey orders records by table, then creation time, then id.
func recordKey(rec models.Record, table string) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", prefixRecord, table, rec.CreatedAt.UnixNano(), rec.ID))
}

func userKey(discordID string) []byte {
	return []byte(prefixUser + discordID)
}

// BulkInsert writes all records in one Badger transaction.
func (s *Store) BulkInsert(ctx context.Context, table string, records []models.Record) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(BackendName, "bulk_insert", time.Since(start), err)
	}()

	if s.isClosed() {
		return store.ErrClosed
	}
	if err := store.CheckTable(table); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for i, rec := range records {
			rec.Table = table
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal record %d: %w", i, err)
			}
			if err := txn.Set(recordKey(rec, table), data); err != nil {
				return fmt.Errorf("write record %d: %w", i, err)
			}
		}
		return nil
	})
}

// CountRecords returns the number of records stored for table.
func (s *Store) CountRecords(ctx context.Context, table string) (int, error) {
	if err := store.CheckTable(table); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixRecord + table + "/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// GetSettings returns the stored settings object, or store.ErrNotFound.
func (s *Store) GetSettings(ctx context.Context) (settings map[string]any, err error) {
	start := time.Now()
	defer func() {
		opErr := err
		if errors.Is(err, store.ErrNotFound) {
			opErr = nil
		}
		metrics.RecordStoreOperation(BackendName, "get_settings", time.Since(start), opErr)
	}()

	if s.isClosed() {
		return nil, store.ErrClosed
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySettings))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &settings)
		})
	})
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// PutSettings replaces the settings object.
func (s *Store) PutSettings(ctx context.Context, settings map[string]any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(BackendName, "put_settings", time.Since(start), err)
	}()

	if s.isClosed() {
		return store.ErrClosed
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keySettings), data)
	})
}

// UpsertUserByExternalID inserts u or merges it into the user with the same
// DiscordID. Badger retries are left to the caller on ErrConflict.
func (s *Store) UpsertUserByExternalID(ctx context.Context, u models.User) (stored models.User, created bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(BackendName, "upsert_user", time.Since(start), err)
	}()

	if s.isClosed() {
		return models.User{}, false, store.ErrClosed
	}
	if u.DiscordID == "" {
		return models.User{}, false, errors.New("upsert user: discord_id required")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := getUser(txn, u.DiscordID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			stored = u
			stored.ID = uuid.NewString()
			stored.CreatedAt = s.now().UTC()
			if stored.LastLogin.IsZero() {
				stored.LastLogin = stored.CreatedAt
			}
			if stored.Roles == nil {
				stored.Roles = []string{}
			}
			created = true
		case err != nil:
			return err
		default:
			stored = store.MergeUser(existing, u)
			created = false
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		return txn.Set(userKey(u.DiscordID), data)
	})
	if err != nil {
		return models.User{}, false, err
	}
	return stored, created, nil
}

// GetUserByExternalID returns the user with discordID, or store.ErrNotFound.
func (s *Store) GetUserByExternalID(discordID string) (models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, discordID)
		return err
	})
	return u, err
}

func getUser(txn *badger.Txn, discordID string) (models.User, error) {
	item, err := txn.Get(userKey(discordID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, &u)
	}); err != nil {
		return models.User{}, fmt.Errorf("decode user %s: %w", strings.TrimPrefix(string(item.Key()), prefixUser), err)
	}
	return u, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if s.isClosed() || s.db.IsClosed() {
		return store.ErrClosed
	}
	return ctx.Err()
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *Store) RunGC() error {
	if s.isClosed() {
		return store.ErrClosed
	}
	for {
		err := s.db.RunValueLogGC(defaultGCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Run calls RunGC every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				if errors.Is(err, store.ErrClosed) {
					return err
				}
				logging.Warn().Err(err).Msg("Badger value log GC failed")
			}
		}
	}
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
