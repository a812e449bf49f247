// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"context"
	"net/http"

	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/upstream"
	ws "github.com/NV24212/ATC24-IFR/internal/websocket"
)

// FlightPlans returns the cached flight plans, newest first. The array is
// empty, never null, before the first plan arrives.
func (h *Handler) FlightPlans(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.feed.Ring().Snapshot())
}

// Controllers proxies the upstream controllers list through the TTL cache.
func (h *Handler) Controllers(w http.ResponseWriter, r *http.Request) {
	h.proxySnapshot(w, r, upstream.EndpointControllers, h.upstream.Controllers)
}

// ATIS proxies the upstream ATIS list through the TTL cache.
func (h *Handler) ATIS(w http.ResponseWriter, r *http.Request) {
	h.proxySnapshot(w, r, upstream.EndpointATIS, h.upstream.ATIS)
}

func (h *Handler) proxySnapshot(w http.ResponseWriter, r *http.Request, endpoint string,
	fetch func(context.Context) (upstream.Snapshot, error)) {
	snap, err := fetch(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("endpoint", endpoint).
			Msg("Failed to fetch upstream snapshot")
		respondCompatError(w, http.StatusBadGateway, "Failed to fetch "+endpoint+": "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// WebSocket upgrades the request and registers a push client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ws.NewClient(h.wsHub, conn).Start()
}
