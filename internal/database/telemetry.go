// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// BulkInsert writes records into table in a single transaction. Either every
// record is stored or none is.
func (db *DB) BulkInsert(ctx context.Context, table string, records []models.Record) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(BackendName, "bulk_insert", time.Since(start), err)
	}()

	if db.closed.Load() {
		return store.ErrClosed
	}
	if err := store.CheckTable(table); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	// table is one of store.KnownTables, never caller text.
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, created_at, ip_address, user_agent, session_id, user_id, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i, rec := range records {
		data, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.CreatedAt.UTC(),
			stringField(rec.Fields, "ip_address"),
			stringField(rec.Fields, "user_agent"),
			stringField(rec.Fields, "session_id"),
			stringField(rec.Fields, "user_id"),
			string(data),
		); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountRecords returns the number of rows in a telemetry table.
func (db *DB) CountRecords(ctx context.Context, table string) (int, error) {
	if err := store.CheckTable(table); err != nil {
		return 0, err
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// stringField returns fields[key] when it is a non-empty string, else nil.
func stringField(fields map[string]any, key string) any {
	if s, ok := fields[key].(string); ok && s != "" {
		return s
	}
	return nil
}
