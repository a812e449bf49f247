// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// testDBSemaphore keeps DuckDB CGO work in this package serial.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.StoreConfig{Backend: BackendName, Path: MemoryPath})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
	assert.Equal(t, BackendName, db.Backend())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNew_FileDatabaseReopens(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "nested", "ifr.duckdb")
	cfg := &config.StoreConfig{Backend: BackendName, Path: path, Threads: 1}

	db, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, db.PutSettings(context.Background(), map[string]any{"clearance_format": "X"}))
	require.NoError(t, db.Close())

	db, err = New(cfg)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "X", got["clearance_format"])

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version, "migrations must not be re-applied")
}

func TestBulkInsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	info := models.RequestInfo{IPAddress: "203.0.113.7", UserAgent: "test-agent", SessionID: "sess-1"}
	records := []models.Record{
		models.NewPageVisitRecord(models.PageVisit{Path: "/"}, info),
		models.NewPageVisitRecord(models.PageVisit{Path: "/admin", Referrer: "https://example.com"}, info),
	}

	require.NoError(t, db.BulkInsert(ctx, models.TablePageVisits, records))

	n, err := db.CountRecords(ctx, models.TablePageVisits)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var ip, sessionID string
	err = db.Conn().QueryRowContext(ctx,
		`SELECT ip_address, session_id FROM page_visits WHERE id = ?`, records[1].ID).Scan(&ip, &sessionID)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)
	assert.Equal(t, "sess-1", sessionID)

	recent, err := db.recentRecords(ctx, models.TablePageVisits, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	paths := []any{recent[0].Fields["page_path"], recent[1].Fields["page_path"]}
	assert.ElementsMatch(t, []any{"/", "/admin"}, paths)
}

func TestBulkInsert_ClearanceKeepsArbitraryFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	body := map[string]any{
		"callsign":        "BAW123",
		"destination":     "IRFD",
		"clearance_text":  "BAW123, cleared to IRFD",
		"station":         map[string]any{"icao": "IPPH"},
		"route_waypoints": []any{"ALDER", "BOBBI"},
	}
	rec := models.NewClearanceRecord(body, models.RequestInfo{UserID: "u-1"})

	require.NoError(t, db.BulkInsert(ctx, models.TableClearanceGenerations, []models.Record{rec}))

	recent, err := db.recentRecords(ctx, models.TableClearanceGenerations, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "BAW123", recent[0].Fields["callsign"])
	assert.Equal(t, map[string]any{"icao": "IPPH"}, recent[0].Fields["station"])
	assert.Equal(t, "u-1", recent[0].Fields["user_id"])
}

func TestBulkInsert_UnknownTable(t *testing.T) {
	db := setupTestDB(t)

	err := db.BulkInsert(context.Background(), "users; DROP TABLE page_visits", []models.Record{
		models.NewRecord("x", map[string]any{}),
	})
	assert.True(t, errors.Is(err, store.ErrUnknownTable))
}

func TestBulkInsert_AllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := models.NewPageVisitRecord(models.PageVisit{Path: "/a"}, models.RequestInfo{})
	b := models.NewPageVisitRecord(models.PageVisit{Path: "/b"}, models.RequestInfo{})
	b.ID = a.ID // primary key collision fails the second insert

	err := db.BulkInsert(ctx, models.TablePageVisits, []models.Record{a, b})
	require.Error(t, err)

	n, err := db.CountRecords(ctx, models.TablePageVisits)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "failed batch must roll back")
}

func TestBulkInsert_Empty(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.BulkInsert(context.Background(), models.TablePageVisits, nil))
}

func TestSettings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "seeded row is an empty object")

	want := map[string]any{
		"clearanceFormat": map[string]any{"customTemplate": "{CALLSIGN} cleared to {DESTINATION}"},
		"aviation":        map[string]any{"defaultAltitudes": []any{float64(1000), float64(2000)}},
	}
	require.NoError(t, db.PutSettings(ctx, want))

	got, err = db.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	merged := models.MergePublicSettings(got)
	assert.Equal(t, "{CALLSIGN} cleared to {DESTINATION}", merged.ClearanceFormat["customTemplate"])
	assert.Equal(t, true, merged.ClearanceFormat["includeAtis"])
}

func TestSettings_MissingRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Conn().ExecContext(ctx, `DELETE FROM admin_settings`)
	require.NoError(t, err)

	_, err = db.GetSettings(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertUserByExternalID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return first }

	u := models.UserFromProfile(models.DiscordProfile{
		DiscordID: "1200035083550208042",
		Username:  "controller",
		Avatar:    "abc",
	}, first)
	u.IsAdmin = true

	stored, created, err := db.UpsertUserByExternalID(ctx, u)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, first, stored.CreatedAt.UTC())

	later := first.Add(48 * time.Hour)
	again := models.UserFromProfile(models.DiscordProfile{
		DiscordID: "1200035083550208042",
		Username:  "renamed",
		Email:     "c@example.com",
	}, later)

	updated, created, err := db.UpsertUserByExternalID(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, updated.ID)
	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, "", updated.Avatar)
	assert.True(t, updated.IsAdmin, "admin flag stays set")

	fetched, err := db.GetUserByExternalID(ctx, "1200035083550208042")
	require.NoError(t, err)
	assert.Equal(t, "renamed", fetched.Username)
	assert.Equal(t, "c@example.com", fetched.Email)
	assert.Equal(t, first, fetched.CreatedAt.UTC())
	assert.Equal(t, later, fetched.LastLogin.UTC())
	assert.Equal(t, []string{}, fetched.Roles)
}

func TestUpsertUserByExternalID_DistinctUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, created, err := db.UpsertUserByExternalID(ctx, models.User{
			DiscordID: fmt.Sprintf("10000000000000000%d", i),
			Username:  fmt.Sprintf("user%d", i),
		})
		require.NoError(t, err)
		assert.True(t, created)
	}

	var n int
	require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM discord_users`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestUpsertUserByExternalID_RequiresID(t *testing.T) {
	db := setupTestDB(t)
	_, _, err := db.UpsertUserByExternalID(context.Background(), models.User{Username: "x"})
	assert.Error(t, err)
}

func TestClosedStore(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "second close is a no-op")

	ctx := context.Background()
	assert.ErrorIs(t, db.Ping(ctx), store.ErrClosed)
	assert.ErrorIs(t, db.BulkInsert(ctx, models.TablePageVisits, nil), store.ErrClosed)
	_, err := db.GetSettings(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, db.PutSettings(ctx, map[string]any{}), store.ErrClosed)
	_, _, err = db.UpsertUserByExternalID(ctx, models.User{DiscordID: "1"})
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(&config.StoreConfig{Path: MemoryPath})
	require.NoError(t, err)
	assert.Equal(t, "", dsn)

	path := filepath.Join(t.TempDir(), "ifr.duckdb")
	dsn, err = buildDSN(&config.StoreConfig{Path: path, Threads: 2, MaxMemory: "256MB"})
	require.NoError(t, err)
	assert.Contains(t, dsn, path+"?access_mode=read_write&threads=2")
	assert.Contains(t, dsn, "max_memory=256MB")
	assert.Contains(t, dsn, "autoload_known_extensions=false")
}
