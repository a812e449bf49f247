// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Upstream message types carrying flight plans.
const (
	SourceFlightPlan      = "FLIGHT_PLAN"
	SourceEventFlightPlan = "EVENT_FLIGHT_PLAN"
)

// Reserved keys added to the payload when an event is encoded.
const (
	FieldTimestamp = "timestamp"
	FieldSource    = "source"
)

// StreamEvent is one accepted flight plan notification.
//
// Fields is the upstream "d" object as decoded. It is never mutated after the
// event is constructed; readers share the same map, so treat it as read-only.
// ReceivedAt carries Go's monotonic reading alongside wall time.
type StreamEvent struct {
	Fields     map[string]any
	ReceivedAt time.Time
	Source     string
}

// NewStreamEvent builds an event received at receivedAt. Pass a time from
// time.Now so Age uses the monotonic clock.
func NewStreamEvent(source string, fields map[string]any, receivedAt time.Time) StreamEvent {
	return StreamEvent{Fields: fields, ReceivedAt: receivedAt, Source: source}
}

// Timestamp returns ReceivedAt as fractional unix seconds.
func (e StreamEvent) Timestamp() float64 {
	return float64(e.ReceivedAt.UnixNano()) / 1e9
}

// Age returns how long ago the event was received, using the monotonic clock
// when available.
func (e StreamEvent) Age(now time.Time) time.Duration {
	return now.Sub(e.ReceivedAt)
}

// String returns a payload field as a string, or "" when absent or not a string.
func (e StreamEvent) String(key string) string {
	s, _ := e.Fields[key].(string)
	return s
}

// Callsign returns the plan's callsign when present.
func (e StreamEvent) Callsign() string {
	if cs := e.String("callsign"); cs != "" {
		return cs
	}
	return e.String("realcallsign")
}

// MarshalJSON flattens the payload and adds timestamp and source, matching
// what the web client has always received from /api/flight-plans.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}
	out[FieldTimestamp] = e.Timestamp()
	out[FieldSource] = e.Source
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON. The monotonic reading is lost.
func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("stream event: expected object")
	}

	ts, _ := raw[FieldTimestamp].(float64)
	src, _ := raw[FieldSource].(string)
	delete(raw, FieldTimestamp)
	delete(raw, FieldSource)

	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	*e = StreamEvent{Fields: raw, ReceivedAt: time.Unix(sec, nsec), Source: src}
	return nil
}
