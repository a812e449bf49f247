// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge labeled by
    chi route pattern
  - PerformanceMonitor: a sliding window of recent requests summarized for
    /api/full-status

All wrappers use chi's WrapResponseWriter so websocket upgrades keep access
to http.Hijacker.
*/
package middleware
