// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"
)

// FeedRunner matches *feed.Connector.
type FeedRunner interface {
	Run(ctx context.Context) error
}

// ConnectorService supervises the upstream stream connector. The connector
// handles its own reconnect backoff, so Run only returns on shutdown.
type ConnectorService struct {
	connector FeedRunner
	closedErr error
	name      string
}

// NewConnectorService wraps connector. closedErr is the error Run returns
// after Close (feed.ErrClosed); it stops restarts.
func NewConnectorService(connector FeedRunner, closedErr error) *ConnectorService {
	return &ConnectorService{
		connector: connector,
		closedErr: closedErr,
		name:      "feed-connector",
	}
}

// Serve implements suture.Service. Run closes the live connection before
// returning when ctx is done.
func (s *ConnectorService) Serve(ctx context.Context) error {
	err := s.connector.Run(ctx)
	if s.closedErr != nil && errors.Is(err, s.closedErr) {
		return suture.ErrDoNotRestart
	}
	return err
}

// String implements fmt.Stringer for suture's logs.
func (s *ConnectorService) String() string {
	return s.name
}
