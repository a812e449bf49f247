// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/NV24212/ATC24-IFR/internal/models"
)

func TestCheckTable(t *testing.T) {
	for _, table := range []string{models.TablePageVisits, models.TableClearanceGenerations} {
		if err := CheckTable(table); err != nil {
			t.Errorf("CheckTable(%q) = %v", table, err)
		}
	}
	for _, table := range []string{"", "discord_users", "page_visits; DROP TABLE x"} {
		if err := CheckTable(table); !errors.Is(err, ErrUnknownTable) {
			t.Errorf("CheckTable(%q) = %v, want ErrUnknownTable", table, err)
		}
	}
}

func TestMergeUser(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	login := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	existing := models.User{
		ID:        "u-1",
		DiscordID: "123456789012345678",
		Username:  "old",
		IsAdmin:   true,
		Roles:     []string{"controller"},
		CreatedAt: created,
	}
	incoming := models.User{
		DiscordID: "123456789012345678",
		Username:  "new",
		Email:     "n@example.com",
		LastLogin: login,
	}

	got := MergeUser(existing, incoming)

	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Errorf("identity changed: %+v", got)
	}
	if got.Username != "new" || got.Email != "n@example.com" || !got.LastLogin.Equal(login) {
		t.Errorf("profile not updated: %+v", got)
	}
	if !got.IsAdmin {
		t.Error("admin flag should be sticky")
	}
	if len(got.Roles) != 1 || got.Roles[0] != "controller" {
		t.Errorf("Roles = %v, want [controller]", got.Roles)
	}
}
