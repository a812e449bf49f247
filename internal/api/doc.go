// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package api provides the HTTP surface of the service on a chi router.

# Routes

Read endpoints:

	GET  /api/health            store status and flight plan cache size
	GET  /api/health/live       liveness
	GET  /api/health/ready      readiness (pings the store)
	GET  /api/flight-plans      cached flight plans, newest first
	GET  /api/controllers       upstream controllers snapshot
	GET  /api/atis              upstream ATIS snapshot
	GET  /api/settings          public settings merged over defaults
	GET  /api/full-status       connectivity, routes and recent errors
	GET  /api/ws                browser websocket push
	GET  /metrics               Prometheus exposition

Write endpoints:

	POST /api/page-visit            queue a page visit record
	POST /api/clearance-generated   queue a clearance record
	POST /api/users                 upsert a Discord user (X-Internal-Token)

# Response Shapes

The controllers and ATIS routes keep the flat shapes the web client already
parses: a snapshot object on success and {"error": "..."} with 502 on
failure. The telemetry routes answer {"success": true} once the record is
queued; whether the later flush succeeds is never reported to the caller.
Every other failure uses the APIError envelope:

	{"error": {"code": "BAD_REQUEST", "message": "...", "request_id": "..."}}

# Middleware

Global: RequestID, RealIP, Recoverer, CORS, PrometheusMetrics and the
performance monitor. Per group: httprate limits and security headers.

# Files

  - chi_router.go: route table
  - chi_middleware.go: CORS, rate limit and header middleware
  - handlers.go: Handler and its dependency interfaces
  - handlers_health.go, handlers_feed.go, handlers_telemetry.go,
    handlers_settings.go, handlers_users.go, handlers_status.go: endpoints
  - response.go: JSON and error helpers
*/
package api
