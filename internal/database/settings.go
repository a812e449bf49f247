// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// GetSettings returns the settings JSON stored in row 1.
func (db *DB) GetSettings(ctx context.Context) (settings map[string]any, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordStoreOperation(BackendName, "get_settings", time.Since(start), nil)
			return
		}
		metrics.RecordStoreOperation(BackendName, "get_settings", time.Since(start), err)
	}()

	if db.closed.Load() {
		return nil, store.ErrClosed
	}

	var raw string
	err = db.conn.QueryRowContext(ctx, `SELECT settings FROM admin_settings WHERE id = ?`, models.SettingsRowID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// PutSettings replaces the settings JSON in row 1.
func (db *DB) PutSettings(ctx context.Context, settings map[string]any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(BackendName, "put_settings", time.Since(start), err)
	}()

	if db.closed.Load() {
		return store.ErrClosed
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO admin_settings (id, settings, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET settings = excluded.settings, updated_at = excluded.updated_at`,
		models.SettingsRowID, string(data), db.now().UTC())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
