// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package models

// SettingsRowID is the primary key of the single admin settings row.
const SettingsRowID = 1

// DefaultClearanceTemplate is the phraseology used when no admin template is saved.
const DefaultClearanceTemplate = "{CALLSIGN}, {ATC_STATION}, good day. Startup approved. " +
	"Information {ATIS} is correct. Cleared to {DESTINATION} via {ROUTE}, runway {RUNWAY}. " +
	"Initial climb {INITIAL_ALT}FT, expect further climb to Flight Level {FLIGHT_LEVEL}. Squawk {SQUAWK}."

// PublicSettings is the subset of admin settings served to the web client.
// Each section is a shallow merge of the stored object over the defaults, so
// keys the client does not know about pass through unchanged.
type PublicSettings struct {
	ClearanceFormat map[string]any `json:"clearanceFormat"`
	Aviation        map[string]any `json:"aviation"`
}

// DefaultPublicSettings returns a fresh copy of the built-in settings.
func DefaultPublicSettings() PublicSettings {
	return PublicSettings{
		ClearanceFormat: map[string]any{
			"customTemplate":         DefaultClearanceTemplate,
			"includeAtis":            true,
			"includeSquawk":          true,
			"includeFlightLevel":     true,
			"includeStartupApproval": true,
			"includeInitialClimb":    true,
		},
		Aviation: map[string]any{
			"defaultAltitudes": []any{1000, 2000, 3000, 4000, 5000},
			"squawkRanges": map[string]any{
				"min":     1000,
				"max":     7777,
				"exclude": []any{7500, 7600, 7700},
			},
		},
	}
}

// MergePublicSettings overlays the clearanceFormat and aviation sections of
// stored on the defaults. Any other top-level key in stored is private and
// dropped. A nil stored yields the defaults.
func MergePublicSettings(stored map[string]any) PublicSettings {
	out := DefaultPublicSettings()
	if section, ok := stored["clearanceFormat"].(map[string]any); ok {
		for k, v := range section {
			out.ClearanceFormat[k] = v
		}
	}
	if section, ok := stored["aviation"].(map[string]any); ok {
		for k, v := range section {
			out.Aviation[k] = v
		}
	}
	return out
}
