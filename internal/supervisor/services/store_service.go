// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package services

import (
	"context"
	"errors"
	"time"

	"github.com/thejerf/suture/v4"
)

// GCRunner matches *kvstore.Store.
type GCRunner interface {
	Run(ctx context.Context, interval time.Duration) error
}

// StoreGCService periodically reclaims Badger value log space.
type StoreGCService struct {
	store     GCRunner
	interval  time.Duration
	closedErr error
	name      string
}

// NewStoreGCService wraps store. closedErr is store.ErrClosed. A
// non-positive interval means 10m.
func NewStoreGCService(st GCRunner, interval time.Duration, closedErr error) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreGCService{
		store:     st,
		interval:  interval,
		closedErr: closedErr,
		name:      "store-gc",
	}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	err := s.store.Run(ctx, s.interval)
	if s.closedErr != nil && errors.Is(err, s.closedErr) {
		return suture.ErrDoNotRestart
	}
	return err
}

// String implements fmt.Stringer for suture's logs.
func (s *StoreGCService) String() string {
	return s.name
}
