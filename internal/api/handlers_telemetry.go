// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/models"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "session_id"
	userIDHeader  = "X-User-ID"
)

// successResponse is the telemetry acknowledgement. It means "queued", not
// "stored".
type successResponse struct {
	Success bool `json:"success"`
}

// PageVisit queues a page visit record.
func (h *Handler) PageVisit(w http.ResponseWriter, r *http.Request) {
	var visit models.PageVisit
	if !h.decodeTelemetryBody(w, r, &visit) {
		return
	}
	h.telemetry.Submit(models.NewPageVisitRecord(visit, requestInfo(r)))
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// ClearanceGenerated queues a clearance record. Body fields are stored as
// sent, with the request metadata fields taking precedence.
func (h *Handler) ClearanceGenerated(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !h.decodeTelemetryBody(w, r, &body) {
		return
	}
	h.telemetry.Submit(models.NewClearanceRecord(body, requestInfo(r)))
	respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// decodeTelemetryBody decodes dst, treating an empty body as an empty object.
// A malformed body answers 400 and returns false.
func (h *Handler) decodeTelemetryBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSONBody(w, r, dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected malformed telemetry body")
	respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
	return false
}

// requestInfo extracts the request metadata stored with telemetry records.
// RealIP has already rewritten RemoteAddr when a proxy header is present.
func requestInfo(r *http.Request) models.RequestInfo {
	info := models.RequestInfo{
		IPAddress: clientIP(r.RemoteAddr),
		UserAgent: r.UserAgent(),
		SessionID: r.Header.Get(sessionHeader),
		UserID:    r.Header.Get(userIDHeader),
	}
	if info.SessionID == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			info.SessionID = c.Value
		}
	}
	return info
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
