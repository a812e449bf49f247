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
	"github.com/google/uuid"

	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

const selectUserColumns = `id, discord_id, username, discriminator, email, avatar, is_admin, roles, created_at, last_login`

// UpsertUserByExternalID inserts u or updates the row with the same DiscordID.
func (db *DB) UpsertUserByExternalID(ctx context.Context, u models.User) (stored models.User, created bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation(BackendName, "upsert_user", time.Since(start), err)
	}()

	if db.closed.Load() {
		return models.User{}, false, store.ErrClosed
	}
	if u.DiscordID == "" {
		return models.User{}, false, fmt.Errorf("upsert user: discord_id required")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	existing, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM discord_users WHERE discord_id = ?`, u.DiscordID))
	switch {
	case errors.Is(err, store.ErrNotFound):
		stored = u
		stored.ID = uuid.NewString()
		stored.CreatedAt = db.now().UTC()
		if stored.LastLogin.IsZero() {
			stored.LastLogin = stored.CreatedAt
		}
		if stored.Roles == nil {
			stored.Roles = []string{}
		}
		created = true
		err = insertUser(ctx, tx, stored)
	case err != nil:
		return models.User{}, false, err
	default:
		stored = store.MergeUser(existing, u)
		err = updateUser(ctx, tx, stored)
	}
	if err != nil {
		return models.User{}, false, err
	}

	if err = tx.Commit(); err != nil {
		return models.User{}, false, fmt.Errorf("commit: %w", err)
	}
	return stored, created, nil
}

// GetUserByExternalID returns the user with discordID, or store.ErrNotFound.
func (db *DB) GetUserByExternalID(ctx context.Context, discordID string) (models.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM discord_users WHERE discord_id = ?`, discordID))
}

func insertUser(ctx context.Context, tx *sql.Tx, u models.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO discord_users (`+selectUserColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.DiscordID, u.Username, nullString(u.Discriminator), nullString(u.Email), nullString(u.Avatar),
		u.IsAdmin, string(roles), u.CreatedAt.UTC(), u.LastLogin.UTC())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func updateUser(ctx context.Context, tx *sql.Tx, u models.User) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE discord_users
		SET username = ?, discriminator = ?, email = ?, avatar = ?, is_admin = ?, last_login = ?
		WHERE id = ?`,
		u.Username, nullString(u.Discriminator), nullString(u.Email), nullString(u.Avatar),
		u.IsAdmin, u.LastLogin.UTC(), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		u                            models.User
		discriminator, email, avatar sql.NullString
		roles                        string
	)
	err := row.Scan(&u.ID, &u.DiscordID, &u.Username, &discriminator, &email, &avatar,
		&u.IsAdmin, &roles, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Discriminator = discriminator.String
	u.Email = email.String
	u.Avatar = avatar.String
	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return models.User{}, fmt.Errorf("decode roles: %w", err)
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
