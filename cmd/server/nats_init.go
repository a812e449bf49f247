// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/events"
	"github.com/NV24212/ATC24-IFR/internal/logging"
)

// NATSComponents holds the optional fan-out pieces. Both fields may be nil.
type NATSComponents struct {
	server    *events.EmbeddedServer
	publisher *events.Publisher
}

// InitNATS starts the embedded server when asked, then connects the
// publisher. It returns empty components when NATS is disabled.
func InitNATS(cfg *config.NATSConfig) (*NATSComponents, error) {
	nc := &NATSComponents{}
	if !cfg.Enabled {
		logging.Info().Msg("NATS fan-out disabled (NATS_ENABLED=false)")
		return nc, nil
	}

	pubCfg := *cfg
	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServerForURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats: %w", err)
		}
		nc.server = srv
		pubCfg.URL = srv.ClientURL()
		logging.Info().Str("url", pubCfg.URL).Msg("Embedded NATS server started")
	}

	pub, err := events.NewPublisher(&pubCfg)
	if err != nil {
		if nc.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = nc.server.Shutdown(ctx)
			cancel()
		}
		return nil, fmt.Errorf("connect nats publisher: %w", err)
	}
	nc.publisher = pub
	logging.Info().
		Str("url", pubCfg.URL).
		Str("subject_prefix", cfg.SubjectPrefix).
		Msg("NATS publisher connected")
	return nc, nil
}
