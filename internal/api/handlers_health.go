// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"context"
	"net/http"
	"time"
)

// Store status values reported by Health.
const (
	StoreStatusConnected = "connected"
	StoreStatusError     = "error"
	StoreStatusDisabled  = "disabled"
)

const storePingTimeout = 2 * time.Second

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status              string  `json:"status"`
	StoreStatus         string  `json:"store_status"`
	StoreBackend        string  `json:"store_backend,omitempty"`
	FeedState           string  `json:"feed_state"`
	FlightPlanCacheSize int     `json:"flight_plan_cache_size"`
	WebSocketClients    int     `json:"websocket_clients"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// Health reports store connectivity and the flight plan cache size. It always
// answers 200; use HealthReady for gating traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:              "ok",
		StoreStatus:         h.storeStatus(r.Context()),
		FeedState:           h.feed.State().String(),
		FlightPlanCacheSize: h.feed.Ring().Len(),
		UptimeSeconds:       h.now().Sub(h.startTime).Seconds(),
	}
	if h.store != nil {
		resp.StoreBackend = h.store.Backend()
	}
	if h.wsHub != nil {
		resp.WebSocketClients = h.wsHub.ClientCount()
	}
	respondJSON(w, http.StatusOK, resp)
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady answers 503 while the store is unreachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if status := h.storeStatus(r.Context()); status == StoreStatusError {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store unavailable", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) storeStatus(ctx context.Context) string {
	if h.store == nil {
		return StoreStatusDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		return StoreStatusError
	}
	return StoreStatusConnected
}
