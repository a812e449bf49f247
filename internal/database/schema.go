// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package database

import (
	"context"
	"fmt"
)

// Telemetry tables share one layout: the request metadata the admin views
// filter on, plus the full field set as JSON text.
const telemetryTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	ip_address VARCHAR,
	user_agent VARCHAR,
	session_id VARCHAR,
	user_id VARCHAR,
	data VARCHAR NOT NULL
);
`

var schemaStatements = []string{
	fmt.Sprintf(telemetryTableSQL, "page_visits"),
	fmt.Sprintf(telemetryTableSQL, "clearance_generations"),
	`CREATE TABLE IF NOT EXISTS admin_settings (
		id INTEGER PRIMARY KEY,
		settings VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS discord_users (
		id VARCHAR PRIMARY KEY,
		discord_id VARCHAR NOT NULL UNIQUE,
		username VARCHAR NOT NULL,
		discriminator VARCHAR,
		email VARCHAR,
		avatar VARCHAR,
		is_admin BOOLEAN NOT NULL DEFAULT false,
		roles VARCHAR NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		last_login TIMESTAMP NOT NULL
	);`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_page_visits_created_at ON page_visits(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_clearance_generations_created_at ON clearance_generations(created_at);`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
