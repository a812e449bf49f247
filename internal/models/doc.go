// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package models holds the data types shared between the feed, the stores
// and the HTTP API.
//
//   - StreamEvent: one accepted flight plan with its receive time and source
//   - PublicSettings: client-visible admin settings merged over defaults
//   - DiscordProfile and User: the identity written by the user upsert
package models
