// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package upstream polls the 24data REST API for controllers and ATIS.
//
// Responses are cached per endpoint in a cache.TTLCache. Concurrent misses
// on one key are not merged; each caller may fetch. A fetch error is returned
// to the caller and nothing is cached, so an error surfaces only when no
// unexpired value exists.
package upstream
