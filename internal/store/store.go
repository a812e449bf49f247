// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package store defines the persistence contract shared by the DuckDB and
// Badger backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/NV24212/ATC24-IFR/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
	// ErrUnknownTable is returned by BulkInsert for tables outside the schema.
	ErrUnknownTable = errors.New("store: unknown table")
)

// Store is what the service needs from persistence.
type Store interface {
	// BulkInsert writes records, all bound for table, in one transaction.
	BulkInsert(ctx context.Context, table string, records []models.Record) error
	// GetSettings returns the admin settings row, or ErrNotFound.
	GetSettings(ctx context.Context) (map[string]any, error)
	// PutSettings replaces the admin settings row.
	PutSettings(ctx context.Context, settings map[string]any) error
	// UpsertUserByExternalID inserts or updates the user keyed by DiscordID.
	// created reports whether a new row was inserted.
	UpsertUserByExternalID(ctx context.Context, u models.User) (stored models.User, created bool, err error)
	// CountRecords returns how many telemetry rows table holds.
	CountRecords(ctx context.Context, table string) (int, error)
	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
	// Backend names the implementation for logs and metrics.
	Backend() string
	Close() error
}

// KnownTables is the set of telemetry tables BulkInsert accepts.
var KnownTables = map[string]struct{}{
	models.TablePageVisits:           {},
	models.TableClearanceGenerations: {},
}

// CheckTable returns ErrUnknownTable for tables outside KnownTables.
func CheckTable(table string) error {
	if _, ok := KnownTables[table]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}

// MergeUser applies an upsert to an existing row. Identity, creation time and
// roles are kept; admin is sticky once granted.
func MergeUser(existing, incoming models.User) models.User {
	out := existing
	out.Username = incoming.Username
	out.Discriminator = incoming.Discriminator
	out.Email = incoming.Email
	out.Avatar = incoming.Avatar
	out.LastLogin = incoming.LastLogin
	out.IsAdmin = existing.IsAdmin || incoming.IsAdmin
	if out.Roles == nil {
		out.Roles = []string{}
	}
	return out
}
