// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/feed"
	"github.com/NV24212/ATC24-IFR/internal/kvstore"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/store"
	"github.com/NV24212/ATC24-IFR/internal/upstream"
)

const testToken = "s3cret-token"

type fakeFeed struct {
	ring  *cache.Ring[models.StreamEvent]
	state feed.State
}

func (f *fakeFeed) Ring() *cache.Ring[models.StreamEvent] { return f.ring }
func (f *fakeFeed) State() feed.State { return f.state }
func (f *fakeFeed) IsConnected() bool { return f.state == feed.StateConnected }

type fakeUpstream struct {
	mu        sync.Mutex
	snapshot  upstream.Snapshot
	err       error
	probeCode int
	probeErr  error
	probed    []string
}

func (f *fakeUpstream) Controllers(context.Context) (upstream.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeUpstream) ATIS(context.Context) (upstream.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeUpstream) URL(endpoint string) string {
	return "https://upstream.test/" + endpoint
}

func (f *fakeUpstream) Probe(_ context.Context, url string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, url)
	return f.probeCode, f.probeErr
}

type recordingSubmitter struct {
	mu      sync.Mutex
	records []models.Record
}

func (s *recordingSubmitter) Submit(rec models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *recordingSubmitter) all() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Record(nil), s.records...)
}

// failingStore fails every call.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) BulkInsert(context.Context, string, []models.Record) error { return errStoreDown }
func (failingStore) GetSettings(context.Context) (map[string]any, error) { return nil, errStoreDown }
func (failingStore) PutSettings(context.Context, map[string]any) error { return errStoreDown }
func (failingStore) UpsertUserByExternalID(context.Context, models.User) (models.User, bool, error) {
	return models.User{}, false, errStoreDown
}
func (failingStore) CountRecords(context.Context, string) (int, error) { return 0, errStoreDown }
func (failingStore) Ping(context.Context) error { return errStoreDown }
func (failingStore) Backend() string { return "failing" }
func (failingStore) Close() error { return nil }

type testEnv struct {
	handler   *Handler
	server    http.Handler
	feed      *fakeFeed
	upstream  *fakeUpstream
	submitted *recordingSubmitter
	store     store.Store
}

func testConfig() *config.Config {
	return &config.Config{
		Feed:     config.FeedConfig{StaleAfter: 300 * time.Second},
		Upstream: config.UpstreamConfig{ProbeTimeout: time.Second},
		Security: config.SecurityConfig{
			CORSOrigins:         []string{"https://ifr.example"},
			InternalToken:       testToken,
			SuperAdminDiscordID: "1200035083550208042",
		},
	}
}

func newTestEnv(t *testing.T, st store.Store) *testEnv {
	t.Helper()
	if st == nil {
		kv, err := kvstore.OpenInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = kv.Close() })
		st = kv
	}

	env := &testEnv{
		feed:      &fakeFeed{ring: cache.NewRing[models.StreamEvent](5), state: feed.StateConnected},
		upstream:  &fakeUpstream{probeCode: http.StatusOK},
		submitted: &recordingSubmitter{},
		store:     st,
	}
	env.handler = NewHandler(testConfig(), Dependencies{
		Feed:      env.feed,
		Upstream:  env.upstream,
		Telemetry: env.submitted,
		Store:     st,
	})
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	env.server = NewRouter(env.handler, mw).SetupChi()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func plan(callsign string, at time.Time) models.StreamEvent {
	return models.StreamEvent{
		Fields:     map[string]any{"callsign": callsign, "aircraft": "A320"},
		ReceivedAt: at,
		Source:     models.SourceFlightPlan,
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	env.feed.ring.Push(plan("BAW1", time.Now()))
	env.feed.ring.Push(plan("BAW2", time.Now()))

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[HealthResponse](t, rec)
	if got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
	if got.StoreStatus != StoreStatusConnected {
		t.Errorf("store_status = %q, want %q", got.StoreStatus, StoreStatusConnected)
	}
	if got.FlightPlanCacheSize != 2 {
		t.Errorf("flight_plan_cache_size = %d, want 2", got.FlightPlanCacheSize)
	}
	if got.StoreBackend != kvstore.BackendName {
		t.Errorf("store_backend = %q, want %q", got.StoreBackend, kvstore.BackendName)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestHealth_StoreFailure(t *testing.T) {
	env := newTestEnv(t, failingStore{})

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
	if got := decode[HealthResponse](t, rec); got.StoreStatus != StoreStatusError {
		t.Errorf("store_status = %q, want %q", got.StoreStatus, StoreStatusError)
	}

	rec = env.do(t, http.MethodGet, "/api/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
	body := decode[ErrorResponse](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrCodeServiceUnavailable, body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)

	if rec := env.do(t, http.MethodGet, "/api/health/live", "", nil); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}

func TestFlightPlans(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/flight-plans", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty cache body = %s, want []", body)
	}

	base := time.Now()
	for i, cs := range []string{"A1", "A2", "A3"} {
		env.feed.ring.Push(plan(cs, base.Add(time.Duration(i)*time.Second)))
	}

	rec = env.do(t, http.MethodGet, "/api/flight-plans", "", nil)
	plans := decode[[]map[string]any](t, rec)
	require.Len(t, plans, 3)
	assert.Equal(t, "A3", plans[0]["callsign"])
	assert.Equal(t, "A1", plans[2]["callsign"])
	assert.Equal(t, models.SourceFlightPlan, plans[0]["source"])
	assert.Contains(t, plans[0], "timestamp")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestControllersAndATIS(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.snapshot = upstream.Snapshot{
		Data:        json.RawMessage(`[{"holder":"ATC1"}]`),
		LastUpdated: 1700000000,
		Source:      "live",
	}

	for _, path := range []string{"/api/controllers", "/api/atis"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, path, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			got := decode[map[string]any](t, rec)
			assert.Equal(t, "live", got["source"])
			assert.EqualValues(t, 1700000000, got["lastUpdated"])
			assert.Len(t, got["data"], 1)
		})
	}
}

func TestControllers_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.err = upstream.ErrUnavailable

	rec := env.do(t, http.MethodGet, "/api/controllers", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	msg, ok := got["error"].(string)
	if !ok || !strings.Contains(msg, "controllers") {
		t.Errorf("error = %v, want flat message naming controllers", got["error"])
	}
}

func TestSettings(t *testing.T) {
	t.Run("defaults when unset", func(t *testing.T) {
		env := newTestEnv(t, nil)
		got := decode[models.PublicSettings](t, env.do(t, http.MethodGet, "/api/settings", "", nil))
		assert.Equal(t, models.DefaultClearanceTemplate, got.ClearanceFormat["customTemplate"])
		assert.Contains(t, got.Aviation, "squawkRanges")
	})

	t.Run("stored values override defaults", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, env.store.PutSettings(context.Background(), map[string]any{
			"clearanceFormat": map[string]any{"includeAtis": false},
			"adminOnly":       "hidden",
		}))

		rec := env.do(t, http.MethodGet, "/api/settings", "", nil)
		got := decode[map[string]map[string]any](t, rec)
		assert.Equal(t, false, got["clearanceFormat"]["includeAtis"])
		assert.Equal(t, true, got["clearanceFormat"]["includeSquawk"])
		assert.NotContains(t, got, "adminOnly")
	})

	t.Run("defaults on store failure", func(t *testing.T) {
		env := newTestEnv(t, failingStore{})
		rec := env.do(t, http.MethodGet, "/api/settings", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		got := decode[models.PublicSettings](t, rec)
		assert.Equal(t, true, got.ClearanceFormat["includeAtis"])
	})
}

func TestPageVisit(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/page-visit", `{"path":"/settings","referrer":"https://ref.example"}`,
		map[string]string{sessionHeader: "sess-1", "User-Agent": "test-agent"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	assert.Equal(t, successResponse{Success: true}, decode[successResponse](t, rec))

	records := env.submitted.all()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, models.TablePageVisits, r.Table)
	assert.Equal(t, "/settings", r.Fields["page_path"])
	assert.Equal(t, "https://ref.example", r.Fields["referrer"])
	assert.Equal(t, "sess-1", r.Fields["session_id"])
	assert.Equal(t, "test-agent", r.Fields["user_agent"])
	assert.Equal(t, "192.0.2.1", r.Fields["ip_address"])
}

func TestPageVisit_EmptyBodyDefaultsPath(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/page-visit", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "cookie-sess"})
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	records := env.submitted.all()
	require.Len(t, records, 1)
	assert.Equal(t, "/", records[0].Fields["page_path"])
	assert.Equal(t, "cookie-sess", records[0].Fields["session_id"])
}

func TestTelemetry_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/page-visit", "/api/clearance-generated"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, path, `{"broken":`, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decode[ErrorResponse](t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, ErrCodeBadRequest, body.Error.Code)
		})
	}
	assert.Empty(t, env.submitted.all())
}

func TestClearanceGenerated(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"callsign":"BAW12","destination":"EGLL","ip_address":"spoofed","squawk":"4521"}`
	rec := env.do(t, http.MethodPost, "/api/clearance-generated", body,
		map[string]string{userIDHeader: "user-9", "X-Forwarded-For": "203.0.113.7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	records := env.submitted.all()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, models.TableClearanceGenerations, r.Table)
	assert.Equal(t, "BAW12", r.Fields["callsign"])
	assert.Equal(t, "4521", r.Fields["squawk"])
	assert.Equal(t, "203.0.113.7", r.Fields["ip_address"], "request metadata must win over body fields")
	assert.Equal(t, "user-9", r.Fields["user_id"])
}

func TestTelemetry_AcknowledgesRegardlessOfStore(t *testing.T) {
	// The handler only queues; a broken store must not change the answer.
	env := newTestEnv(t, failingStore{})
	rec := env.do(t, http.MethodPost, "/api/clearance-generated", `{"callsign":"X"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	assert.Len(t, env.submitted.all(), 1)
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Not found"}` {
		t.Errorf("body = %s", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/flight-plans", "{}", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	body := decode[ErrorResponse](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrCodeMethodNotAllowed, body.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/flight-plans", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected Go runtime metrics in exposition")
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})
	server := NewRouter(env.handler, mw).SetupChi()

	first := httptest.NewRecorder()
	server.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/flight-plans", nil))
	second := httptest.NewRecorder()
	server.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/flight-plans", nil))

	if first.Code != http.StatusOK {
		t.Errorf("first status = %d, want 200", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	body := decode[ErrorResponse](t, second)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrCodeTooManyRequests, body.Error.Code)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak", `line\x0abreak`},
		{"tab\there", `tab\x09here`},
		{"del\x7f", `del\x7f`},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
