// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// BackendName labels DuckDB in logs and metrics.
const BackendName = "duckdb"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the DuckDB connection and implements store.Store.
type DB struct {
	conn   *sql.DB
	cfg    *config.StoreConfig
	closed atomic.Bool
	now    func() time.Time
}

var _ store.Store = (*DB)(nil)

// New opens (or creates) the database at cfg.Path and applies the schema.
func New(cfg *config.StoreConfig) (*DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, now: time.Now}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", displayPath(cfg.Path)).Msg("DuckDB store opened")
	return db, nil
}

func buildDSN(cfg *config.StoreConfig) (string, error) {
	if cfg.Path == "" || cfg.Path == MemoryPath {
		return "", nil
	}

	// Ensure the parent directory exists for the database file.
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	dsn := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, threads)
	if cfg.MaxMemory != "" {
		dsn += "&max_memory=" + cfg.MaxMemory
	}
	// Extensions are not needed; avoid network fetches at startup.
	dsn += "&autoinstall_known_extensions=false&autoload_known_extensions=false"
	return dsn, nil
}

func displayPath(p string) string {
	if p == "" {
		return MemoryPath
	}
	return p
}

func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize creates tables and runs pending migrations.
func (db *DB) initialize() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createTables(ctx); err != nil {
		return err
	}
	return db.runVersionedMigrations(ctx)
}

// Backend implements store.Store.
func (db *DB) Backend() string {
	return BackendName
}

// Ping checks that the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.closed.Load() {
		return store.ErrClosed
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints the WAL into the database file and closes the connection.
// It is safe to call more than once.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	return db.conn.Close()
}

// Conn returns the underlying connection for tests and tooling.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
