// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolate points CONFIG_PATH at a missing file and changes into an empty
// directory so that no config.yaml on the host leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "absent.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Feed.URL != "wss://24data.ptfs.app/wss" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if !reflect.DeepEqual(cfg.Feed.AllowedTypes, []string{"FLIGHT_PLAN", "EVENT_FLIGHT_PLAN"}) {
		t.Errorf("Feed.AllowedTypes = %v", cfg.Feed.AllowedTypes)
	}
	if cfg.Feed.Capacity != 50 {
		t.Errorf("Feed.Capacity = %d, want 50", cfg.Feed.Capacity)
	}
	if cfg.Telemetry.Threshold != 50 {
		t.Errorf("Telemetry.Threshold = %d, want 50", cfg.Telemetry.Threshold)
	}
	if cfg.Telemetry.Interval != 10*time.Second {
		t.Errorf("Telemetry.Interval = %v, want 10s", cfg.Telemetry.Interval)
	}
	if cfg.Telemetry.FlushTimeout > cfg.Telemetry.Interval {
		t.Errorf("Telemetry.FlushTimeout = %v, must not exceed the interval", cfg.Telemetry.FlushTimeout)
	}
	if cfg.Upstream.Timeout != 15*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 15s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.ProbeTimeout != 5*time.Second {
		t.Errorf("Upstream.ProbeTimeout = %v, want 5s", cfg.Upstream.ProbeTimeout)
	}
	if cfg.Feed.StaleAfter != 300*time.Second {
		t.Errorf("Feed.StaleAfter = %v, want 300s", cfg.Feed.StaleAfter)
	}
	if cfg.Store.Backend != "duckdb" {
		t.Errorf("Store.Backend = %q, want duckdb", cfg.Store.Backend)
	}
	if cfg.NATS.Enabled {
		t.Error("NATS should be disabled by default")
	}
	if cfg.Security.SuperAdminDiscordID != DefaultSuperAdminDiscordID {
		t.Errorf("Security.SuperAdminDiscordID = %q", cfg.Security.SuperAdminDiscordID)
	}
}

func TestDefaultConfig_Validates(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanf_DefaultsOnly(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Feed.BackoffMax != 5*time.Minute {
		t.Errorf("Feed.BackoffMax = %v, want 5m", cfg.Feed.BackoffMax)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("FEED_URL", "ws://127.0.0.1:7000/wss")
	t.Setenv("FEED_ALLOWED_TYPES", "FLIGHT_PLAN, EVENT_FLIGHT_PLAN ,CONTROLLERS")
	t.Setenv("TELEMETRY_INTERVAL", "2s")
	t.Setenv("TELEMETRY_FLUSH_TIMEOUT", "1500ms")
	t.Setenv("TELEMETRY_THRESHOLD", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("INTERNAL_API_TOKEN", "s3cret-token-value")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Feed.URL != "ws://127.0.0.1:7000/wss" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	want := []string{"FLIGHT_PLAN", "EVENT_FLIGHT_PLAN", "CONTROLLERS"}
	if !reflect.DeepEqual(cfg.Feed.AllowedTypes, want) {
		t.Errorf("Feed.AllowedTypes = %v, want %v", cfg.Feed.AllowedTypes, want)
	}
	if cfg.Telemetry.Interval != 2*time.Second {
		t.Errorf("Telemetry.Interval = %v, want 2s", cfg.Telemetry.Interval)
	}
	if cfg.Telemetry.FlushTimeout != 1500*time.Millisecond {
		t.Errorf("Telemetry.FlushTimeout = %v, want 1.5s", cfg.Telemetry.FlushTimeout)
	}
	if cfg.Telemetry.Threshold != 7 {
		t.Errorf("Telemetry.Threshold = %d, want 7", cfg.Telemetry.Threshold)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Security.InternalToken != "s3cret-token-value" {
		t.Errorf("Security.InternalToken = %q", cfg.Security.InternalToken)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "ifr.yaml")
	content := []byte(`
feed:
  capacity: 20
  backoff_base: 1s
  backoff_max: 30s
store:
  backend: badger
  path: /tmp/ifr-badger
nats:
  enabled: true
  url: nats://127.0.0.1:4333
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FEED_CAPACITY", "25")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Feed.Capacity != 25 {
		t.Errorf("env should win over file: Feed.Capacity = %d, want 25", cfg.Feed.Capacity)
	}
	if cfg.Feed.BackoffBase != time.Second || cfg.Feed.BackoffMax != 30*time.Second {
		t.Errorf("backoff = %v/%v", cfg.Feed.BackoffBase, cfg.Feed.BackoffMax)
	}
	if cfg.Store.Backend != "badger" || cfg.Store.Path != "/tmp/ifr-badger" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if !cfg.NATS.Enabled || cfg.NATS.URL != "nats://127.0.0.1:4333" {
		t.Errorf("NATS = %+v", cfg.NATS)
	}
	if cfg.NATS.SubjectPrefix != "ifr.flightplans" {
		t.Errorf("unset file keys should keep defaults, got SubjectPrefix = %q", cfg.NATS.SubjectPrefix)
	}
}

func TestLoadWithKoanf_InvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("feed: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadWithKoanf_ValidationFailure(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_BACKEND", "sqlite")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("expected validation error for unknown store backend")
	}
}

func TestLoadWithKoanf_FlushTimeoutAboveInterval(t *testing.T) {
	isolate(t)
	t.Setenv("TELEMETRY_INTERVAL", "100ms")
	t.Setenv("TELEMETRY_FLUSH_TIMEOUT", "300ms")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected validation error for flush_timeout above interval")
	}
	if !strings.Contains(err.Error(), "telemetry.flush_timeout") {
		t.Errorf("error = %q, want it to name telemetry.flush_timeout", err.Error())
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FEED_URL", "feed.url"},
		{"DUCKDB_PATH", "store.path"},
		{"NATS_EMBEDDED", "nats.embedded_server"},
		{"INTERNAL_API_TOKEN", "security.internal_token"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != "config.yaml" {
		t.Errorf("findConfigFile() = %q, want config.yaml", got)
	}
}
