// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/validation"
)

// UpsertUserResponse is the body of POST /api/users.
type UpsertUserResponse struct {
	User    models.User `json:"user"`
	Created bool        `json:"created"`
}

// RequireInternalToken rejects requests whose X-Internal-Token does not match
// token. An empty token disables the guarded routes entirely.
func RequireInternalToken(token string) func(http.Handler) http.Handler {
	security := logging.NewSecurityLogger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Internal endpoints are disabled", nil)
				return
			}
			got := r.Header.Get(InternalTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				security.LogInternalTokenRejected(clientIP(r.RemoteAddr), r.UserAgent(), r.URL.Path)
				respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid internal token", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UpsertUser creates or refreshes a user from a Discord profile. The
// configured super admin id is always stored as admin.
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store unavailable", nil)
		return
	}

	var profile models.DiscordProfile
	if err := decodeJSONBody(w, r, &profile); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
		return
	}
	if verr := validation.ValidateStruct(&profile); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	u := models.UserFromProfile(profile, h.now())
	if h.config != nil && profile.DiscordID == h.config.Security.SuperAdminDiscordID {
		u.IsAdmin = true
	}

	stored, created, err := h.store.UpsertUserByExternalID(r.Context(), u)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, "Failed to save user", err)
		return
	}

	logging.NewSecurityLogger().LogUserUpsert(stored.DiscordID, stored.Username, clientIP(r.RemoteAddr), created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, UpsertUserResponse{User: stored, Created: created})
}
