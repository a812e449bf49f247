// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package services

import (
	"context"

	"github.com/NV24212/ATC24-IFR/internal/logging"
)

// BatchRunner matches *telemetry.Batcher.
type BatchRunner interface {
	Run(ctx context.Context) error
	// Close rejects further records and flushes the remainder once, bounded
	// by the batcher's own flush timeout.
	Close() error
}

// BatcherService supervises the telemetry batch ticker.
type BatcherService struct {
	batcher BatchRunner
	name    string
}

// NewBatcherService wraps batcher.
func NewBatcherService(batcher BatchRunner) *BatcherService {
	return &BatcherService{batcher: batcher, name: "telemetry-batcher"}
}

// Serve implements suture.Service. On shutdown it performs one best-effort
// final flush; a failure there is logged and not returned, so shutdown is
// never escalated by a store outage.
func (s *BatcherService) Serve(ctx context.Context) error {
	err := s.batcher.Run(ctx)
	if ctx.Err() == nil {
		return err
	}

	if ferr := s.batcher.Close(); ferr != nil {
		logging.Error().Err(ferr).Msg("Final telemetry flush failed")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *BatcherService) String() string {
	return s.name
}
