// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package models

import (
	"fmt"
	"time"
)

// DiscordProfile is the identity returned by Discord for a logged-in user.
type DiscordProfile struct {
	DiscordID     string `json:"discord_id" validate:"required,snowflake"`
	Username      string `json:"username" validate:"required,max=64"`
	Discriminator string `json:"discriminator,omitempty" validate:"omitempty,max=8"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	// Avatar is the Discord avatar hash, not a URL.
	Avatar string `json:"avatar,omitempty" validate:"omitempty,max=128"`
}

// AvatarURL builds the CDN URL for the profile's avatar, or "" when unset.
func (p DiscordProfile) AvatarURL() string {
	if p.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", p.DiscordID, p.Avatar)
}

// User is a stored discord_users row, keyed externally by DiscordID.
type User struct {
	ID            string    `json:"id"`
	DiscordID     string    `json:"discord_id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	Email         string    `json:"email,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	IsAdmin       bool      `json:"is_admin"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"created_at"`
	LastLogin     time.Time `json:"last_login"`
}

// UserFromProfile builds the fields an upsert writes. ID, IsAdmin, Roles and
// CreatedAt are owned by the store and preserved across upserts.
func UserFromProfile(p DiscordProfile, now time.Time) User {
	return User{
		DiscordID:     p.DiscordID,
		Username:      p.Username,
		Discriminator: p.Discriminator,
		Email:         p.Email,
		Avatar:        p.AvatarURL(),
		Roles:         []string{},
		LastLogin:     now.UTC(),
	}
}
