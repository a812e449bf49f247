// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"errors"
	"net/http"

	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// Settings returns the public settings merged over the defaults. Any store
// failure serves the defaults.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondJSON(w, http.StatusOK, models.DefaultPublicSettings())
		return
	}

	stored, err := h.store.GetSettings(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		stored = nil
	case err != nil:
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load settings, serving defaults")
		stored = nil
	}
	respondJSON(w, http.StatusOK, models.MergePublicSettings(stored))
}
