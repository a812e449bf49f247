// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// mockService counts starts and can fail its first N runs.
type mockService struct {
	name      string
	failTimes int32
	starts    atomic.Int32
	stops     atomic.Int32
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	n := m.starts.Add(1)
	if n <= m.failTimes {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	m.stops.Add(1)
	return ctx.Err()
}

func (m *mockService) String() string {
	return m.name
}
