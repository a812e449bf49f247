// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package middleware

import (
	"net/http"
	"sort"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/logging"
)

// DefaultSlowRequest is the latency above which requests are logged.
const DefaultSlowRequest = time.Second

// RequestMetrics is one observed request.
type RequestMetrics struct {
	Route      string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}

// EndpointStats aggregates the recent window for one method and route.
type EndpointStats struct {
	Method       string  `json:"method"`
	Route        string  `json:"route"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	MaxMS        int64   `json:"max_ms"`
}

// PerformanceMonitor keeps a sliding window of recent requests for the
// status report.
type PerformanceMonitor struct {
	window *cache.Ring[RequestMetrics]
	slow   time.Duration
}

// NewPerformanceMonitor keeps the last size requests.
func NewPerformanceMonitor(size int) *PerformanceMonitor {
	return &PerformanceMonitor{
		window: cache.NewRing[RequestMetrics](size),
		slow:   DefaultSlowRequest,
	}
}

// RecordRequest adds m to the window.
func (pm *PerformanceMonitor) RecordRequest(m RequestMetrics) {
	pm.window.Push(m)
}

// Stats aggregates the window per endpoint, busiest first.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	type key struct{ method, route string }
	groups := make(map[key][]RequestMetrics)
	for _, m := range pm.window.Snapshot() {
		k := key{m.Method, m.Route}
		groups[k] = append(groups[k], m)
	}

	stats := make([]EndpointStats, 0, len(groups))
	for k, ms := range groups {
		durations := make([]int64, len(ms))
		var sum int64
		errs := 0
		for i, m := range ms {
			durations[i] = m.Duration.Milliseconds()
			sum += durations[i]
			if m.StatusCode >= http.StatusInternalServerError {
				errs++
			}
		}
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

		stats = append(stats, EndpointStats{
			Method:       k.method,
			Route:        k.route,
			RequestCount: len(ms),
			ErrorCount:   errs,
			AvgMS:        float64(sum) / float64(len(ms)),
			P50MS:        percentile(durations, 0.50),
			P95MS:        percentile(durations, 0.95),
			MaxMS:        durations[len(durations)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Route+stats[i].Method < stats[j].Route+stats[j].Method
	})
	return stats
}

// Middleware records every request and logs slow ones.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := RoutePattern(r)
		pm.RecordRequest(RequestMetrics{
			Route:      route,
			Method:     r.Method,
			Duration:   duration,
			StatusCode: statusOf(ww),
			Timestamp:  start,
		})

		if duration > pm.slow {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Dur("duration", duration).
				Msg("Slow request detected")
		}
	})
}

// percentile reads p from an ascending slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
