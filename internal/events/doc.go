// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package events publishes accepted flight plans to NATS.
//
// Publisher wraps a watermill-nats publisher on core NATS with a circuit
// breaker. The feed connector calls Enqueue for each accepted event; a
// supervised Run loop drains the buffer. Subjects are
// <prefix>.<source lowercased>, e.g. ifr.flightplans.flight_plan.
//
// EmbeddedServer starts nats-server in process when no external broker is
// configured.
package events
