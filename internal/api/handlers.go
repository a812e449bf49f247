// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/feed"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/middleware"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
	"github.com/NV24212/ATC24-IFR/internal/upstream"
	ws "github.com/NV24212/ATC24-IFR/internal/websocket"
)

// FeedSource is the read side of the stream connector.
type FeedSource interface {
	Ring() *cache.Ring[models.StreamEvent]
	State() feed.State
	IsConnected() bool
}

// UpstreamFetcher serves the polled controllers and ATIS endpoints.
type UpstreamFetcher interface {
	Controllers(ctx context.Context) (upstream.Snapshot, error)
	ATIS(ctx context.Context) (upstream.Snapshot, error)
	URL(endpoint string) string
	Probe(ctx context.Context, url string) (int, error)
}

// RecordSubmitter queues telemetry records. Submit must not block on I/O.
type RecordSubmitter interface {
	Submit(rec models.Record)
}

// Dependencies are the collaborators a Handler reads from. Store, Hub,
// Errors and PerfMon may be nil.
type Dependencies struct {
	Feed      FeedSource
	Upstream  UpstreamFetcher
	Telemetry RecordSubmitter
	Store     store.Store
	Hub       *ws.Hub
	Errors    *logging.ErrorRecorder
	PerfMon   *middleware.PerformanceMonitor
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_health.go: health, liveness and readiness
//   - handlers_feed.go: flight plans, controllers, ATIS and the websocket
//   - handlers_telemetry.go: page visit and clearance records
//   - handlers_settings.go: public settings
//   - handlers_users.go: internal user upsert
//   - handlers_status.go: full status report
type Handler struct {
	config    *config.Config
	feed      FeedSource
	upstream  UpstreamFetcher
	telemetry RecordSubmitter
	store     store.Store
	wsHub     *ws.Hub
	errors    *logging.ErrorRecorder
	perfMon   *middleware.PerformanceMonitor
	routes    chi.Routes
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a Handler. Feed, Upstream and Telemetry are required.
func NewHandler(cfg *config.Config, deps Dependencies) *Handler {
	return &Handler{
		config:    cfg,
		feed:      deps.Feed,
		upstream:  deps.Upstream,
		telemetry: deps.Telemetry,
		store:     deps.Store,
		wsHub:     deps.Hub,
		errors:    deps.Errors,
		perfMon:   deps.PerfMon,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts browser origins listed in security.cors_origins.
// Requests without an Origin header are rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
