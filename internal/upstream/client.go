// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/NV24212/ATC24-IFR/internal/breaker"
	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/metrics"
)

// Polled endpoints, also used as cache keys and metric labels.
const (
	EndpointControllers = "controllers"
	EndpointATIS        = "atis"
)

// SourceLive tags snapshots fetched from the upstream API.
const SourceLive = "live"

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// ErrUnavailable is returned when the circuit breaker rejects a call.
var ErrUnavailable = errors.New("upstream: unavailable")

// Snapshot is one fetched upstream document with its fetch time.
type Snapshot struct {
	Data        json.RawMessage `json:"data"`
	LastUpdated float64         `json:"lastUpdated"`
	Source      string          `json:"source"`
}

// Client fetches the controllers and ATIS lists from the 24data API.
//
// Each endpoint is cached for its own TTL. Misses go through a rate limiter
// and a circuit breaker before reaching the network.
type Client struct {
	baseURL        string
	http           *http.Client
	timeout        time.Duration
	probeTimeout   time.Duration
	controllersTTL time.Duration
	atisTTL        time.Duration

	limiter *rate.Limiter
	breaker *breaker.Breaker[Snapshot]
	cache   *cache.TTLCache[Snapshot]
	logger  zerolog.Logger
	now     func() time.Time
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           &http.Client{},
		timeout:        cfg.Timeout,
		probeTimeout:   cfg.ProbeTimeout,
		controllersTTL: cfg.ControllersTTL,
		atisTTL:        cfg.ATISTTL,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker:        breaker.New[Snapshot](breaker.DefaultConfig("upstream-api")),
		cache:          cache.NewTTLCache[Snapshot]("upstream"),
		logger:         logging.WithComponent("upstream"),
		now:            time.Now,
	}
}

// Controllers returns the active controller list.
func (c *Client) Controllers(ctx context.Context) (Snapshot, error) {
	return c.get(ctx, EndpointControllers, c.controllersTTL)
}

// ATIS returns the current ATIS list.
func (c *Client) ATIS(ctx context.Context) (Snapshot, error) {
	return c.get(ctx, EndpointATIS, c.atisTTL)
}

// URL returns the absolute URL of endpoint.
func (c *Client) URL(endpoint string) string {
	return c.baseURL + "/" + endpoint
}

// CacheStats exposes the snapshot cache counters.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

func (c *Client) get(ctx context.Context, endpoint string, ttl time.Duration) (Snapshot, error) {
	return c.cache.GetOrFetch(ctx, endpoint, ttl, func(ctx context.Context) (Snapshot, error) {
		return c.fetch(ctx, endpoint)
	})
}

func (c *Client) fetch(ctx context.Context, endpoint string) (Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("%s: rate limiter: %w", endpoint, err)
	}

	snap, err := c.breaker.Execute(func() (Snapshot, error) {
		return c.do(ctx, endpoint)
	})
	if err != nil {
		if breaker.IsRejected(err) {
			return Snapshot{}, fmt.Errorf("%s: %w: %w", endpoint, ErrUnavailable, err)
		}
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Upstream fetch failed")
		return Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint), http.NoBody)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, 0, time.Since(start))
		return Snapshot{}, fmt.Errorf("%s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("%s: request failed with status %d", endpoint, resp.StatusCode)
	}
	if !json.Valid(body) {
		return Snapshot{}, fmt.Errorf("%s: response is not valid JSON", endpoint)
	}

	return Snapshot{
		Data:        json.RawMessage(body),
		LastUpdated: float64(c.now().UnixNano()) / 1e9,
		Source:      SourceLive,
	}, nil
}

// Probe sends a HEAD request to url and returns the status code. It bypasses
// the cache, the limiter and the breaker.
func (c *Client) Probe(ctx context.Context, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create probe request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", url, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
