// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NV24212/ATC24-IFR/internal/api"
	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/events"
	"github.com/NV24212/ATC24-IFR/internal/feed"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/middleware"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
	"github.com/NV24212/ATC24-IFR/internal/supervisor"
	"github.com/NV24212/ATC24-IFR/internal/supervisor/services"
	"github.com/NV24212/ATC24-IFR/internal/telemetry"
	"github.com/NV24212/ATC24-IFR/internal/upstream"
	ws "github.com/NV24212/ATC24-IFR/internal/websocket"
)

const (
	// errorLogSize is how many error lines /api/full-status can show.
	errorLogSize = 50
	// perfMonitorSize is the per-endpoint latency window.
	perfMonitorSize = 1000
	storeGCInterval = 10 * time.Minute
)

//nolint:gocyclo // sequential startup
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	recorder := logging.NewErrorRecorder(errorLogSize)
	logging.Init(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Caller:   cfg.Logging.Caller,
		Output:   os.Stderr,
		Recorder: recorder,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("feed_url", cfg.Feed.URL).
		Str("store_backend", cfg.Store.Backend).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting ATC24 IFR backend")

	st, kv, err := openStore(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore(st)
	logging.Info().Str("backend", st.Backend()).Msg("Store opened")

	nc, err := InitNATS(&cfg.NATS)
	if err != nil {
		closeStore(st)
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}

	hub := ws.NewHub()

	ring := cache.NewRing[models.StreamEvent](cfg.Feed.Capacity)
	connector := feed.NewConnector(&cfg.Feed, ring)
	connector.AddListener(hub.BroadcastFlightPlan)
	if nc.publisher != nil {
		connector.AddListener(nc.publisher.Enqueue)
	}

	upstreamClient := upstream.NewClient(&cfg.Upstream)

	batcher, err := telemetry.NewBatcher(st, &cfg.Telemetry)
	if err != nil {
		closeStore(st)
		logging.Fatal().Err(err).Msg("Failed to create telemetry batcher")
	}

	perfMon := middleware.NewPerformanceMonitor(perfMonitorSize)
	handler := api.NewHandler(cfg, api.Dependencies{
		Feed:      connector,
		Upstream:  upstreamClient,
		Telemetry: batcher,
		Store:     st,
		Hub:       hub,
		Errors:    recorder,
		PerfMon:   perfMon,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		closeStore(st)
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddFeedService(services.NewConnectorService(connector, feed.ErrClosed))
	tree.AddFeedService(services.NewBatcherService(batcher))

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	if nc.publisher != nil {
		tree.AddMessagingService(services.NewPublisherService(nc.publisher, events.ErrClosed))
	}
	if nc.server != nil {
		tree.AddMessagingService(services.NewEmbeddedNATSService(nc.server, cfg.Supervisor.ShutdownTimeout))
	}
	if kv != nil {
		tree.AddMessagingService(services.NewStoreGCService(kv, storeGCInterval, store.ErrClosed))
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel delivers exactly one result.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().
		Int64("telemetry_flushed", batcher.Stats().Flushed).
		Int64("telemetry_dropped", batcher.Stats().Dropped).
		Msg("Application stopped gracefully")
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing store")
	}
}
