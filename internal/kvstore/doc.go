// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package kvstore implements store.Store on BadgerDB for single-node
// deployments that do not want DuckDB's CGO dependency at runtime.
//
// Keys:
//
//	rec/<table>/<created_at unix nanos, zero padded>/<id>  telemetry record JSON
//	settings/1                                             admin settings JSON
//	user/<discord_id>                                      user JSON
//
// Record keys sort by creation time within a table, so newest-first reads are
// a reverse prefix scan and CountRecords is a key-only prefix scan.
package kvstore
