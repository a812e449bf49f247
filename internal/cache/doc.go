// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package cache provides the two in-memory caches the backend reads from.
//
// # Ring
//
// Ring[T] holds the most recent flight plans received from the upstream feed.
// It has a fixed capacity, overwrites its oldest element when full, and
// returns newest-first copies, so readers never see a half-written slot:
//
//	plans := cache.NewRing[models.StreamEvent](50)
//	plans.Push(ev)
//	recent := plans.Snapshot() // recent[0] is the newest
//
// # TTLCache
//
// TTLCache[V] memoizes polled upstream resources such as the controller list
// and ATIS. GetOrFetch either returns a value younger than its TTL or runs
// the fetch function and stores the result:
//
//	snap, err := c.GetOrFetch(ctx, "atis", 30*time.Second, client.fetchATIS)
//
// Failures are never cached. Two requests that miss at the same moment both
// fetch; the upstream rate limiter bounds the cost of that.
package cache
