// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NV24212/ATC24-IFR/internal/config"
)

// fakeAPI serves /controllers and /atis and counts hits per path.
type fakeAPI struct {
	mu     sync.Mutex
	hits   map[string]int
	status map[string]int
	body   map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		hits:   map[string]int{},
		status: map[string]int{},
		body: map[string]string{
			"/controllers": `[{"airport":"IRFD","position":"TWR","holder":"atc1"}]`,
			"/atis":        `[{"airport":"IRFD","letter":"A"}]`,
		},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	status, ok := f.status[r.URL.Path]
	body := f.body[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeAPI) set(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = status
	f.body[path] = body
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func testUpstreamConfig(baseURL string) *config.UpstreamConfig {
	return &config.UpstreamConfig{
		BaseURL:        baseURL,
		ControllersTTL: 5 * time.Second,
		ATISTTL:        10 * time.Second,
		Timeout:        2 * time.Second,
		ProbeTimeout:   time.Second,
		RatePerSecond:  1000,
		Burst:          100,
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestClient(t *testing.T) (*Client, *fakeAPI, *fakeClock) {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	clock := &fakeClock{now: time.Unix(1_750_000_000, 0)}
	c := NewClient(testUpstreamConfig(srv.URL + "/"))
	c.cache.SetClock(clock.Now)
	c.now = clock.Now
	return c, api, clock
}

func TestClient_ControllersCachedForTTL(t *testing.T) {
	c, api, clock := newTestClient(t)
	ctx := context.Background()

	first, err := c.Controllers(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, first.Source)
	assert.JSONEq(t, `[{"airport":"IRFD","position":"TWR","holder":"atc1"}]`, string(first.Data))
	assert.InDelta(t, 1_750_000_000, first.LastUpdated, 0.001)

	clock.Advance(4 * time.Second)
	second, err := c.Controllers(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.LastUpdated, second.LastUpdated)
	assert.Equal(t, 1, api.count("/controllers"))

	clock.Advance(time.Second) // exactly at expiry
	third, err := c.Controllers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("/controllers"))
	assert.Greater(t, third.LastUpdated, first.LastUpdated)
}

func TestClient_EndpointsIndependent(t *testing.T) {
	c, api, clock := newTestClient(t)
	ctx := context.Background()

	_, err := c.Controllers(ctx)
	require.NoError(t, err)
	_, err = c.ATIS(ctx)
	require.NoError(t, err)

	clock.Advance(6 * time.Second) // controllers expired, atis not
	_, err = c.Controllers(ctx)
	require.NoError(t, err)
	_, err = c.ATIS(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("/controllers"))
	assert.Equal(t, 1, api.count("/atis"))
}

func TestClient_ErrorNotCached(t *testing.T) {
	c, api, _ := newTestClient(t)
	ctx := context.Background()

	api.set("/atis", http.StatusServiceUnavailable, `{"error":"busy"}`)
	_, err := c.ATIS(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	api.set("/atis", http.StatusOK, `[]`)
	snap, err := c.ATIS(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(snap.Data))
	assert.Equal(t, 2, api.count("/atis"))
}

func TestClient_CachedValueMasksLaterFailure(t *testing.T) {
	c, api, clock := newTestClient(t)
	ctx := context.Background()

	_, err := c.ATIS(ctx)
	require.NoError(t, err)

	api.set("/atis", http.StatusInternalServerError, ``)
	clock.Advance(9 * time.Second)
	_, err = c.ATIS(ctx)
	assert.NoError(t, err, "served from cache within TTL")
	assert.Equal(t, 1, api.count("/atis"))
}

func TestClient_InvalidJSON(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.set("/controllers", http.StatusOK, `<html>maintenance</html>`)

	_, err := c.Controllers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.set("/controllers", http.StatusBadGateway, ``)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.Controllers(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable), "call %d should reach upstream", i)
	}

	_, err := c.Controllers(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, api.count("/controllers"))
	assert.Equal(t, "open", c.BreakerState())
}

func TestClient_TransportFailure(t *testing.T) {
	c := NewClient(testUpstreamConfig("http://127.0.0.1:1"))
	_, err := c.Controllers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_ConcurrentMissesMayEachFetch(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(testUpstreamConfig(srv.URL))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Controllers(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
}

func TestClient_Probe(t *testing.T) {
	c, api, _ := newTestClient(t)
	api.set("/atis", http.StatusNoContent, ``)

	status, err := c.Probe(context.Background(), c.URL(EndpointATIS))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	_, err = c.Probe(context.Background(), "http://127.0.0.1:1/")
	assert.Error(t, err)
}

func TestSnapshot_JSONShape(t *testing.T) {
	snap := Snapshot{Data: json.RawMessage(`{"a":1}`), LastUpdated: 1.5, Source: SourceLive}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"a":1},"lastUpdated":1.5,"source":"live"}`, string(data))
}

func TestClient_URLTrimsSlash(t *testing.T) {
	c := NewClient(testUpstreamConfig("https://24data.ptfs.app/"))
	assert.Equal(t, "https://24data.ptfs.app/controllers", c.URL(EndpointControllers))
}
