// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the configuration loader and the
// API request handlers. Field names in messages are taken from the koanf or
// json struct tag, so a configuration failure reads "feed.url is required"
// and a request failure reads "discord_id must be a numeric Discord id".
//
// # Custom Tags
//
//   - snowflake: a 15 to 21 digit Discord id
//
// # Usage
//
//	type userRequest struct {
//	    DiscordID string `json:"discord_id" validate:"required,snowflake"`
//	    Username  string `json:"username" validate:"required,max=64"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Code and apiErr.Message
//	}
package validation
