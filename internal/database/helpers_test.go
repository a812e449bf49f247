// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package database

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// recentRecords returns up to limit rows from table, newest first.
func (db *DB) recentRecords(ctx context.Context, table string, limit int) ([]models.Record, error) {
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, created_at, data FROM %s ORDER BY created_at DESC, id LIMIT ?`, table), limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			rec  models.Record
			data string
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode %s row %s: %w", table, rec.ID, err)
		}
		rec.Table = table
		out = append(out, rec)
	}
	return out, rows.Err()
}
