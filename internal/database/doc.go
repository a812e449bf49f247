// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package database is the DuckDB implementation of store.Store.
//
// # Layout
//
//   - database.go: connection lifecycle, DSN and pool settings
//   - schema.go: telemetry, settings and user tables
//   - migrations.go: versioned, append-only schema changes
//   - telemetry.go: transactional bulk inserts for the telemetry batcher
//   - settings.go: the single admin settings row
//   - users.go: Discord user upserts keyed by discord_id
//
// Telemetry rows keep the request metadata in typed columns and the full
// submitted object as JSON in the data column, so new client fields never
// need a schema change.
//
// An empty Path or ":memory:" opens a private in-memory database, which is
// what the tests use.
package database
