// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NV24212/ATC24-IFR/internal/middleware"
)

// Router wires handlers and middleware onto a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	internalToken string
}

// NewRouter creates a Router. mw may be nil for the default middleware.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	r := &Router{handler: handler, chiMiddleware: mw}
	if handler.config != nil {
		r.internalToken = handler.config.Security.InternalToken
	}
	return r
}

// SetupChi builds the route table. The returned mux is also what the full
// status report walks.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	if router.handler.perfMon != nil {
		r.Use(router.handler.perfMon.Middleware)
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/api/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Use(NoStore)
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Read endpoints
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(NoStore)
		r.Get("/api/flight-plans", router.handler.FlightPlans)
		r.Get("/api/controllers", router.handler.Controllers)
		r.Get("/api/atis", router.handler.ATIS)
		r.Get("/api/settings", router.handler.Settings)
		r.Get("/api/full-status", router.handler.FullStatus)
	})

	// Telemetry is fire-and-forget; the limiter bounds queue growth per client.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitTelemetry))
		r.Use(APISecurityHeaders())
		r.Post("/api/page-visit", router.handler.PageVisit)
		r.Post("/api/clearance-generated", router.handler.ClearanceGenerated)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitInternal))
		r.Use(APISecurityHeaders())
		r.Use(RequireInternalToken(router.internalToken))
		r.Post("/api/users", router.handler.UpsertUser)
	})

	r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).
		Get("/api/ws", router.handler.WebSocket)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	router.handler.routes = r
	return r
}

// notFound keeps the flat error body for unknown API paths.
func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		respondCompatError(w, http.StatusNotFound, "Not found")
		return
	}
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
}
