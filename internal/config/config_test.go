// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "http feed url",
			mutate:  func(c *Config) { c.Feed.URL = "https://24data.ptfs.app/wss" },
			wantErr: "feed.url scheme",
		},
		{
			name:    "missing feed url",
			mutate:  func(c *Config) { c.Feed.URL = "" },
			wantErr: "feed.url is required",
		},
		{
			name: "backoff base above cap",
			mutate: func(c *Config) {
				c.Feed.BackoffBase = 10 * time.Minute
				c.Feed.BackoffMax = time.Minute
			},
			wantErr: "must not exceed feed.backoff_max",
		},
		{
			name:    "zero capacity",
			mutate:  func(c *Config) { c.Feed.Capacity = 0 },
			wantErr: "feed.capacity",
		},
		{
			name:    "empty allowed types",
			mutate:  func(c *Config) { c.Feed.AllowedTypes = nil },
			wantErr: "feed.allowed_types",
		},
		{
			name:    "upstream query string",
			mutate:  func(c *Config) { c.Upstream.BaseURL = "https://24data.ptfs.app?x=1" },
			wantErr: "query parameters",
		},
		{
			name: "flush timeout above interval",
			mutate: func(c *Config) {
				c.Telemetry.Interval = 100 * time.Millisecond
				c.Telemetry.FlushTimeout = 300 * time.Millisecond
			},
			wantErr: "must not exceed telemetry.interval",
		},
		{
			name: "flush timeout equal to interval",
			mutate: func(c *Config) {
				c.Telemetry.Interval = 5 * time.Second
				c.Telemetry.FlushTimeout = 5 * time.Second
			},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name: "badger without path",
			mutate: func(c *Config) {
				c.Store.Backend = "badger"
				c.Store.Path = ""
			},
			wantErr: "store.path is required",
		},
		{
			name: "nats bad scheme",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.URL = "http://127.0.0.1:4222"
			},
			wantErr: "nats.url scheme",
		},
		{
			name: "nats disabled ignores url",
			mutate: func(c *Config) {
				c.NATS.Enabled = false
				c.NATS.URL = "garbage"
			},
		},
		{
			name:    "super admin not numeric",
			mutate:  func(c *Config) { c.Security.SuperAdminDiscordID = "h.a.s2" },
			wantErr: "super_admin_discord_id",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8000}
	if s.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}

func TestRedacted(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.InternalToken = "abcdef123456"

	red := cfg.Redacted()
	if red.Security.InternalToken != "***" {
		t.Errorf("InternalToken = %q, want ***", red.Security.InternalToken)
	}
	if cfg.Security.InternalToken != "abcdef123456" {
		t.Error("Redacted must not modify the receiver")
	}

	red.Feed.AllowedTypes[0] = "MUTATED"
	if cfg.Feed.AllowedTypes[0] == "MUTATED" {
		t.Error("Redacted should copy slices")
	}
}
