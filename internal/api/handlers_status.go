// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NV24212/ATC24-IFR/internal/middleware"
	"github.com/NV24212/ATC24-IFR/internal/store"
	"github.com/NV24212/ATC24-IFR/internal/upstream"
)

// Aggregate status values.
const (
	StatusOperational = "operational"
	StatusDegraded    = "degraded"
	StatusOutage      = "outage"
)

// Per-service status messages.
const (
	ServiceOffline       = "Offline"
	ServiceOnline        = "Online"
	ServiceReceivingData = "Online (Receiving Data)"
)

// External service names in the status report.
const (
	ServiceControllers = "24DATA_Controllers"
	ServiceATIS        = "24DATA_ATIS"
	ServiceWebSocket   = "24DATA_WebSocket"
)

const (
	defaultProbeTimeout = 5 * time.Second
	defaultStaleAfter   = 300 * time.Second
)

// FullStatus is the body of GET /api/full-status.
type FullStatus struct {
	DataConnectivity DataConnectivity `json:"24data_connectivity"`
	API              APIStatus        `json:"24ifr_api"`
	Errors           ErrorStatus      `json:"errors"`
	Storage          *StorageStatus   `json:"storage,omitempty"`
}

// StorageStatus reports the telemetry store and its row counts per table.
type StorageStatus struct {
	Backend string         `json:"backend"`
	Status  string         `json:"status"`
	Records map[string]int `json:"records"`
	Error   string         `json:"error,omitempty"`
}

// DataConnectivity reports the upstream services.
type DataConnectivity struct {
	Status    string            `json:"status"`
	Endpoints []ServiceEndpoint `json:"endpoints"`
}

// ServiceEndpoint is one upstream service.
type ServiceEndpoint struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIStatus lists the routes this server exposes.
type APIStatus struct {
	Status      string                     `json:"status"`
	Endpoints   []RouteEndpoint            `json:"endpoints"`
	Performance []middleware.EndpointStats `json:"performance,omitempty"`
}

// RouteEndpoint is one registered route.
type RouteEndpoint struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Methods string `json:"methods"`
	Status  string `json:"status"`
}

// ErrorStatus reports recent error-level log lines.
type ErrorStatus struct {
	Status string   `json:"status"`
	Count  int      `json:"count"`
	Logs   []string `json:"logs"`
}

// FullStatus probes the upstream services and reports them with the route
// table and recent errors.
func (h *Handler) FullStatus(w http.ResponseWriter, r *http.Request) {
	services := h.externalServices(r.Context())

	endpoints := make([]ServiceEndpoint, 0, len(services))
	for _, s := range services {
		status := StatusOutage
		if strings.Contains(s.message, ServiceOnline) {
			status = StatusOperational
		}
		endpoints = append(endpoints, ServiceEndpoint{Name: s.name, Status: status, Message: s.message})
	}

	resp := FullStatus{
		DataConnectivity: DataConnectivity{
			Status:    dataStatus(services),
			Endpoints: endpoints,
		},
		API: APIStatus{
			Status:    StatusOperational,
			Endpoints: h.routeEndpoints(),
		},
		Errors:  h.errorStatus(),
		Storage: h.storageStatus(r.Context()),
	}
	if h.perfMon != nil {
		resp.API.Performance = h.perfMon.Stats()
	}
	respondJSON(w, http.StatusOK, resp)
}

type serviceStatus struct {
	name    string
	message string
}

// externalServices probes controllers and ATIS concurrently and derives the
// stream status from the connector and the newest cached plan.
func (h *Handler) externalServices(ctx context.Context) []serviceStatus {
	services := []serviceStatus{
		{name: ServiceControllers, message: ServiceOffline},
		{name: ServiceATIS, message: ServiceOffline},
		{name: ServiceWebSocket, message: h.streamStatus()},
	}

	timeout := defaultProbeTimeout
	if h.config != nil && h.config.Upstream.ProbeTimeout > 0 {
		timeout = h.config.Upstream.ProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wg sync.WaitGroup
	for i, endpoint := range []string{upstream.EndpointControllers, upstream.EndpointATIS} {
		wg.Add(1)
		go func(i int, endpoint string) {
			defer wg.Done()
			code, err := h.upstream.Probe(ctx, h.upstream.URL(endpoint))
			if err == nil && code == http.StatusOK {
				services[i].message = ServiceOnline
			}
		}(i, endpoint)
	}
	wg.Wait()
	return services
}

func (h *Handler) streamStatus() string {
	staleAfter := defaultStaleAfter
	if h.config != nil && h.config.Feed.StaleAfter > 0 {
		staleAfter = h.config.Feed.StaleAfter
	}
	if newest, ok := h.feed.Ring().Newest(); ok && newest.Age(h.now()) < staleAfter {
		return ServiceReceivingData
	}
	if h.feed.IsConnected() {
		return ServiceOnline
	}
	return ServiceOffline
}

// dataStatus is outage when every service is offline, degraded when any is,
// operational otherwise.
func dataStatus(services []serviceStatus) string {
	offline := 0
	for _, s := range services {
		if s.message != ServiceOnline && s.message != ServiceReceivingData {
			offline++
		}
	}
	switch {
	case offline == len(services):
		return StatusOutage
	case offline > 0:
		return StatusDegraded
	default:
		return StatusOperational
	}
}

// routeEndpoints walks the router, merging methods per path. HEAD and
// OPTIONS are omitted.
func (h *Handler) routeEndpoints() []RouteEndpoint {
	out := []RouteEndpoint{}
	if h.routes == nil {
		return out
	}

	methods := make(map[string][]string)
	_ = chi.Walk(h.routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if method == http.MethodHead || method == http.MethodOptions {
			return nil
		}
		route = strings.TrimSuffix(route, "/")
		if route == "" {
			route = "/"
		}
		methods[route] = append(methods[route], method)
		return nil
	})

	for route, ms := range methods {
		sort.Strings(ms)
		out = append(out, RouteEndpoint{
			Name:    routeName(route),
			Path:    route,
			Methods: strings.Join(ms, ","),
			Status:  StatusOperational,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// routeName turns /api/full-status into full_status.
func routeName(route string) string {
	name := strings.TrimPrefix(route, "/api")
	name = strings.Trim(name, "/")
	if name == "" {
		return "root"
	}
	return strings.NewReplacer("/", "_", "-", "_").Replace(name)
}

// storageStatus counts rows in every telemetry table. A failed count marks
// the store degraded and is left out of Records.
func (h *Handler) storageStatus(ctx context.Context) *StorageStatus {
	if h.store == nil {
		return nil
	}
	st := &StorageStatus{
		Backend: h.store.Backend(),
		Status:  StatusOperational,
		Records: make(map[string]int, len(store.KnownTables)),
	}
	for table := range store.KnownTables {
		n, err := h.store.CountRecords(ctx, table)
		if err != nil {
			st.Status = StatusDegraded
			st.Error = err.Error()
			continue
		}
		st.Records[table] = n
	}
	return st
}

func (h *Handler) errorStatus() ErrorStatus {
	st := ErrorStatus{Status: StatusOperational, Logs: []string{}}
	if h.errors == nil {
		return st
	}
	st.Logs = append(st.Logs, h.errors.Lines()...)
	st.Count = len(st.Logs)
	if st.Count > 0 {
		st.Status = StatusDegraded
	}
	return st
}
