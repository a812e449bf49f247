// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package logging provides centralized zerolog-based structured logging.
//
// One Init call at startup decides level, format and destination for every
// component in the process:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("url", feedURL).Msg("feed connected")
//	logging.Err(err).Str("table", "page_visits").Msg("flush failed")
//
// Always terminate an event with Msg or Send, otherwise nothing is written.
//
// # Adapters
//
// Two adapters route third-party logging into the same sink:
//
//   - NewSlogLogger for sutureslog and anything else expecting *slog.Logger
//   - NewWatermillLogger for the watermill NATS publisher
//
// # Request Context
//
// The API layer stores a request ID in the request context; Ctx(ctx) returns
// a logger carrying it:
//
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("settings lookup failed")
//
// # Security Events
//
// SecurityLogger records user upserts and rejected internal tokens with
// tokens and email addresses masked.
package logging
