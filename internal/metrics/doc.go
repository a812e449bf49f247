// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package metrics defines the Prometheus collectors for the process.
//
// Collectors are registered with promauto on the default registry and
// exposed by the API at /metrics. Components call the Record* helpers
// rather than touching collectors directly:
//
//	metrics.RecordFeedAccepted(ring.Len(), ev.ReceivedAt)
//	metrics.RecordTelemetryFlush("interval", time.Since(start), n, err)
//	metrics.RecordCacheLookup("upstream_controllers", hit)
package metrics
