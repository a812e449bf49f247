// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package feed consumes the 24data websocket stream.

The Connector keeps one connection open, decodes {"t","d"} envelopes and
stores FLIGHT_PLAN and EVENT_FLIGHT_PLAN payloads in a cache.Ring. Listeners
registered with AddListener see each accepted event after it is stored; the
browser hub and the NATS publisher attach this way.

Usage:

	ring := cache.NewRing[models.StreamEvent](cfg.Feed.Capacity)
	conn := feed.NewConnector(&cfg.Feed, ring)
	conn.AddListener(hub.BroadcastFlightPlan)
	go conn.Run(ctx)

Reconnects use Backoff: base, doubling, capped, reset on every successful
handshake.
*/
package feed
