// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Telemetry tables.
const (
	TablePageVisits           = "page_visits"
	TableClearanceGenerations = "clearance_generations"
)

// Record is one telemetry row queued for a batched insert.
type Record struct {
	ID        string         `json:"id"`
	Table     string         `json:"table"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRecord assigns an id and creation time to fields bound for table.
func NewRecord(table string, fields map[string]any) Record {
	return Record{
		ID:        uuid.NewString(),
		Table:     table,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}
}

// RequestInfo is the caller metadata attached to every telemetry row.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	SessionID string
	UserID    string
}

// MaxPageFieldLen bounds the client-supplied page visit fields.
const MaxPageFieldLen = 2048

// PageVisit is the client-supplied part of a page visit.
type PageVisit struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

// NewPageVisitRecord builds a page_visits row.
func NewPageVisitRecord(v PageVisit, info RequestInfo) Record {
	path := clip(v.Path, MaxPageFieldLen)
	if path == "" {
		path = "/"
	}
	fields := map[string]any{
		"page_path":  path,
		"referrer":   nullable(clip(v.Referrer, MaxPageFieldLen)),
		"user_agent": info.UserAgent,
		"ip_address": info.IPAddress,
		"session_id": nullable(info.SessionID),
		"user_id":    nullable(info.UserID),
	}
	return NewRecord(TablePageVisits, fields)
}

// NewClearanceRecord builds a clearance_generations row. body is the JSON the
// client sent; its keys are kept as given and the request metadata wins on
// conflicts.
func NewClearanceRecord(body map[string]any, info RequestInfo) Record {
	fields := make(map[string]any, len(body)+4)
	for k, v := range body {
		fields[k] = v
	}
	fields["ip_address"] = info.IPAddress
	fields["user_agent"] = info.UserAgent
	fields["session_id"] = nullable(info.SessionID)
	fields["user_id"] = nullable(info.UserID)
	return NewRecord(TableClearanceGenerations, fields)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
