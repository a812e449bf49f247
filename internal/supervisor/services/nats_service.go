// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/NV24212/ATC24-IFR/internal/logging"
)

// EventPublisher matches *events.Publisher.
type EventPublisher interface {
	Run(ctx context.Context) error
	Close() error
}

// PublisherService drains the flight plan fan-out queue into NATS.
type PublisherService struct {
	publisher EventPublisher
	closedErr error
	name      string
}

// NewPublisherService wraps publisher. closedErr is events.ErrClosed.
func NewPublisherService(publisher EventPublisher, closedErr error) *PublisherService {
	return &PublisherService{
		publisher: publisher,
		closedErr: closedErr,
		name:      "nats-publisher",
	}
}

// Serve implements suture.Service. The NATS connection is closed once the
// context ends; queued events are dropped.
func (s *PublisherService) Serve(ctx context.Context) error {
	err := s.publisher.Run(ctx)
	if s.closedErr != nil && errors.Is(err, s.closedErr) {
		return suture.ErrDoNotRestart
	}
	if ctx.Err() != nil {
		if cerr := s.publisher.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Closing NATS publisher")
		}
	}
	return err
}

// String implements fmt.Stringer for suture's logs.
func (s *PublisherService) String() string {
	return s.name
}

// NATSServer matches *events.EmbeddedServer.
type NATSServer interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// EmbeddedNATSService owns the lifetime of an in-process NATS server. The
// server is started before the tree so the publisher can connect at
// construction; this service only watches and stops it.
type EmbeddedNATSService struct {
	server          NATSServer
	shutdownTimeout time.Duration
	checkInterval   time.Duration
	name            string
}

// NewEmbeddedNATSService wraps server. A non-positive timeout means 10s.
func NewEmbeddedNATSService(server NATSServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		checkInterval:   5 * time.Second,
		name:            "embedded-nats",
	}
}

// Serve implements suture.Service. A server that stops on its own cannot be
// restarted in place, so that case ends supervision of this service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("embedded nats shutdown: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				logging.Error().Msg("Embedded NATS server stopped unexpectedly")
				return suture.ErrDoNotRestart
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
