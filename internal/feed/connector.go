// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
connector.go - Upstream Flight Plan Stream Client

Connector owns the single websocket connection to the 24data feed. It dials,
reads text frames, keeps flight plan notifications in a bounded ring and
reconnects with a doubling backoff after any failure.

	Disconnected -> Connecting -> Connected -> Disconnected -> ...

A malformed payload inside a valid text frame is skipped. A read error or a
non-text frame closes the connection.
*/

package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("feed: connector closed")

var errNonTextFrame = errors.New("non-text frame")

// Listener receives each accepted event after it is stored in the ring. It is
// called on the read loop and must not block.
type Listener func(models.StreamEvent)

// Stats is a point-in-time view of connector activity.
type Stats struct {
	State       State     `json:"state"`
	Connects    uint64    `json:"connects"`
	Reconnects  uint64    `json:"reconnects"`
	Accepted    uint64    `json:"accepted"`
	Ignored     uint64    `json:"ignored"`
	Malformed   uint64    `json:"malformed"`
	Empty       uint64    `json:"empty"`
	LastError   string    `json:"last_error,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
}

// Connector manages the upstream feed connection.
type Connector struct {
	url              string
	allowed          map[string]struct{}
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	backoff          *Backoff
	ring             *cache.Ring[models.StreamEvent]
	dialer           *websocket.Dialer
	logger           zerolog.Logger

	// wait blocks for d or until ctx is done. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time

	state atomic.Int32

	connMu sync.Mutex
	conn   *websocket.Conn

	listenerMu sync.RWMutex
	listeners  []Listener

	statsMu sync.Mutex
	stats   Stats

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewConnector creates a connector writing accepted events into ring.
func NewConnector(cfg *config.FeedConfig, ring *cache.Ring[models.StreamEvent]) *Connector {
	c := &Connector{
		url:              cfg.URL,
		allowed:          allowSet(cfg.AllowedTypes),
		handshakeTimeout: cfg.HandshakeTimeout,
		readTimeout:      cfg.ReadTimeout,
		backoff:          NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		ring:             ring,
		dialer: &websocket.Dialer{
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: true,
		},
		logger:   logging.WithComponent("feed"),
		wait:     sleepContext,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	metrics.RecordFeedState(int(StateDisconnected))
	return c
}

// AddListener registers fn for accepted events.
func (c *Connector) AddListener(fn Listener) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Ring returns the recent-history ring the connector writes to.
func (c *Connector) Ring() *cache.Ring[models.StreamEvent] {
	return c.ring
}

// State returns the current connection state.
func (c *Connector) State() State {
	return State(c.state.Load())
}

// Stats returns a copy of the connector counters.
func (c *Connector) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	s := c.stats
	s.State = c.State()
	return s
}

// Run connects and reads until ctx is canceled or Close is called. It never
// returns on a transport failure; it waits the current backoff and dials again.
func (c *Connector) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := c.backoff.Next()
			c.logger.Info().
				Dur("delay", delay).
				Dur("next_delay", c.backoff.Peek()).
				Int("attempt", attempt).
				Msg("Reconnecting to feed")
			if err := c.wait(ctx, delay); err != nil {
				return c.exit(ctx)
			}
			metrics.FeedReconnects.Inc()
			c.statsMu.Lock()
			c.stats.Reconnects++
			c.statsMu.Unlock()
		}
		if ctx.Err() != nil {
			return c.exit(ctx)
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			c.recordError(err)
			c.logger.Warn().Err(err).Str("url", c.url).Msg("Feed connection failed")
			c.setState(StateDisconnected)
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()
		c.backoff.Reset()
		c.statsMu.Lock()
		c.stats.Connects++
		c.stats.ConnectedAt = c.now()
		c.statsMu.Unlock()
		c.setState(StateConnected)

		err = c.readLoop(ctx, conn)
		c.closeConnection()
		if ctx.Err() != nil || c.stopped() {
			return c.exit(ctx)
		}
		c.recordError(err)
		c.logger.Warn().Err(err).Msg("Feed connection lost")
		c.setState(StateDisconnected)
	}
}

// exit moves through Closing to Disconnected and reports why Run stopped.
func (c *Connector) exit(ctx context.Context) error {
	c.setState(StateClosing)
	c.closeConnection()
	c.setState(StateDisconnected)

	if c.stopped() {
		return ErrClosed
	}
	return ctx.Err()
}

func (c *Connector) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.url, nil)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug().Err(cerr).Msg("Failed to close handshake response body")
		}
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// readLoop reads frames until an error. A ping loop keeps the read deadline
// moving on a quiet but healthy connection.
func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	conn.SetPongHandler(func(string) error { return extend() })

	go func() {
		select {
		case <-ctx.Done():
			// Unblocks ReadMessage.
			_ = conn.Close()
		case <-done:
		}
	}()
	go c.pingLoop(conn, done)

	for {
		if err := extend(); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("closed by upstream: %w", err)
			}
			return fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.TextMessage {
			c.countResult(resultMalformed)
			metrics.RecordFeedMessage(resultMalformed)
			return errNonTextFrame
		}
		c.handleMessage(data)
	}
}

func (c *Connector) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	interval := c.readTimeout / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				c.logger.Debug().Err(err).Msg("Feed ping failed")
				return
			}
		}
	}
}

// handleMessage decodes one text frame and stores accepted events.
func (c *Connector) handleMessage(data []byte) {
	ev, result, err := decodeMessage(data, c.allowed, c.now())
	c.countResult(result)

	switch result {
	case resultAccepted:
		n := c.ring.Push(ev)
		metrics.RecordFeedAccepted(n, ev.ReceivedAt)
		c.logger.Debug().Str("source", ev.Source).Str("callsign", ev.Callsign()).Int("ring_size", n).Msg("Flight plan received")
		c.notify(ev)
	case resultMalformed:
		metrics.RecordFeedMessage(result)
		c.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Skipping malformed feed message")
	case resultEmpty:
		metrics.RecordFeedMessage(result)
		c.logger.Debug().Msg("Skipping flight plan with empty payload")
	default:
		metrics.RecordFeedMessage(result)
		c.logger.Trace().Msg("Ignoring feed message type")
	}
}

func (c *Connector) notify(ev models.StreamEvent) {
	c.listenerMu.RLock()
	defer c.listenerMu.RUnlock()
	for _, fn := range c.listeners {
		fn(ev)
	}
}

func (c *Connector) countResult(result string) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	switch result {
	case resultAccepted:
		c.stats.Accepted++
	case resultIgnored:
		c.stats.Ignored++
	case resultMalformed:
		c.stats.Malformed++
	case resultEmpty:
		c.stats.Empty++
	}
}

func (c *Connector) recordError(err error) {
	if err == nil {
		return
	}
	c.statsMu.Lock()
	c.stats.LastError = err.Error()
	c.statsMu.Unlock()
}

func (c *Connector) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev == s {
		return
	}
	metrics.RecordFeedState(int(s))
	c.logger.Info().Str("from", prev.String()).Str("to", s.String()).Msg("Feed state transition")
}

// closeConnection sends a close frame and drops the connection if one is open.
func (c *Connector) closeConnection() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close message")
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to close connection")
	}
	c.conn = nil
}

// Close stops Run and closes the live connection. It is safe to call more than once.
func (c *Connector) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.closeConnection()
	return nil
}

func (c *Connector) stopped() bool {
	select {
	case <-c.stopChan:
		return true
	default:
		return false
	}
}

// IsConnected reports whether a connection is currently open.
func (c *Connector) IsConnected() bool {
	return c.State() == StateConnected
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
