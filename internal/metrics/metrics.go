// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed connector

	FeedConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_connection_state",
			Help: "Upstream feed connection state (0=disconnected, 1=connecting, 2=connected, 3=closing)",
		},
	)

	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Total number of upstream feed connection attempts after the first",
		},
	)

	FeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_messages_total",
			Help: "Upstream feed messages by handling result",
		},
		[]string{"result"}, // "accepted", "ignored", "malformed", "empty"
	)

	FeedRingSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_ring_size",
			Help: "Number of flight plans currently held in the recent-history ring",
		},
	)

	FeedLastEventTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_last_event_timestamp_seconds",
			Help: "Unix time of the most recently accepted flight plan",
		},
	)

	// Telemetry batcher

	TelemetrySubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_records_submitted_total",
			Help: "Telemetry records accepted by the batcher",
		},
		[]string{"table"},
	)

	TelemetryFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_flush_duration_seconds",
			Help:    "Duration of telemetry batch flushes",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	TelemetryBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_batch_size",
			Help:    "Number of records per telemetry flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	TelemetryFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_flushes_total",
			Help: "Telemetry flushes by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: "threshold", "interval", "final"
	)

	TelemetryDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_records_dropped_total",
			Help: "Telemetry records discarded without being stored",
		},
		[]string{"reason"}, // "flush_failed", "closed"
	)

	// Caches

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Upstream polling

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Outbound requests to the upstream data API",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Outbound request duration to the upstream data API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"endpoint"},
	)

	// Circuit breakers

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests passing through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Store

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of persistent store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Persistent store operation failures",
		},
		[]string{"backend", "operation"},
	)

	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Browser websocket

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active browser WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages broadcast to browser clients",
		},
	)

	// NATS fan-out

	NATSPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_flightplans_published_total",
			Help: "Flight plans published to NATS",
		},
	)

	NATSPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_flightplans_publish_failures_total",
			Help: "Flight plan publishes that returned an error",
		},
	)

	NATSPublishDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_flightplans_dropped_total",
			Help: "Flight plans not queued for NATS because the buffer was full",
		},
	)
)

// RecordFeedState exports a connector state ordinal.
func RecordFeedState(state int) {
	FeedConnectionState.Set(float64(state))
}

// RecordFeedMessage counts one inbound frame by result.
func RecordFeedMessage(result string) {
	FeedMessages.WithLabelValues(result).Inc()
}

// RecordFeedAccepted updates the ring gauges after an accepted event.
func RecordFeedAccepted(ringSize int, at time.Time) {
	FeedMessages.WithLabelValues("accepted").Inc()
	FeedRingSize.Set(float64(ringSize))
	FeedLastEventTimestamp.Set(float64(at.UnixNano()) / 1e9)
}

// RecordTelemetryFlush records one flush attempt.
func RecordTelemetryFlush(trigger string, duration time.Duration, batchSize int, err error) {
	TelemetryFlushDuration.Observe(duration.Seconds())
	TelemetryBatchSize.Observe(float64(batchSize))
	if err != nil {
		TelemetryFlushes.WithLabelValues(trigger, "failure").Inc()
		TelemetryDropped.WithLabelValues("flush_failed").Add(float64(batchSize))
		return
	}
	TelemetryFlushes.WithLabelValues(trigger, "success").Inc()
}

// RecordCacheLookup counts a hit or miss for cacheType.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordUpstreamRequest records one outbound call. status is the HTTP code,
// or 0 for a transport failure.
func RecordUpstreamRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(endpoint, label).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records a store call and counts it as an error when err is set.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
