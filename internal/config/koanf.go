// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/atc24-ifr/config.yaml",
	"/etc/atc24-ifr/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultSuperAdminDiscordID is the account that always gets is_admin.
const DefaultSuperAdminDiscordID = "1200035083550208042"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Feed: FeedConfig{
			URL:              "wss://24data.ptfs.app/wss",
			AllowedTypes:     []string{"FLIGHT_PLAN", "EVENT_FLIGHT_PLAN"},
			Capacity:         50,
			HandshakeTimeout: 10 * time.Second,
			ReadTimeout:      90 * time.Second,
			BackoffBase:      5 * time.Second,
			BackoffMax:       5 * time.Minute,
			StaleAfter:       300 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://24data.ptfs.app",
			ControllersTTL: 30 * time.Second,
			ATISTTL:        30 * time.Second,
			Timeout:        15 * time.Second,
			ProbeTimeout:   5 * time.Second,
			RatePerSecond:  2,
			Burst:          4,
		},
		Telemetry: TelemetryConfig{
			Threshold:    50,
			Interval:     10 * time.Second,
			FlushTimeout: 8 * time.Second,
		},
		Store: StoreConfig{
			Backend:   "duckdb",
			Path:      "/data/atc24-ifr.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			SubjectPrefix:  "ifr.flightplans",
			BufferSize:     256,
		},
		Security: SecurityConfig{
			CORSOrigins:         []string{"*"},
			RateLimitReqs:       100,
			RateLimitWindow:     time.Minute,
			RateLimitDisabled:   false,
			InternalToken:       "",
			SuperAdminDiscordID: DefaultSuperAdminDiscordID,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads defaults, then the config file, then the environment.
// Precedence is ENV > file > defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"feed.allowed_types",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"port":         "server.port",
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Feed
	"feed_url":               "feed.url",
	"feed_allowed_types":     "feed.allowed_types",
	"feed_capacity":          "feed.capacity",
	"feed_handshake_timeout": "feed.handshake_timeout",
	"feed_read_timeout":      "feed.read_timeout",
	"feed_backoff_base":      "feed.backoff_base",
	"feed_backoff_max":       "feed.backoff_max",
	"feed_stale_after":       "feed.stale_after",

	// Upstream polling
	"upstream_base_url":        "upstream.base_url",
	"upstream_controllers_ttl": "upstream.controllers_ttl",
	"upstream_atis_ttl":        "upstream.atis_ttl",
	"upstream_timeout":         "upstream.timeout",
	"upstream_probe_timeout":   "upstream.probe_timeout",
	"upstream_rate_per_second": "upstream.rate_per_second",
	"upstream_burst":           "upstream.burst",

	// Telemetry batching
	"telemetry_threshold":     "telemetry.threshold",
	"telemetry_interval":      "telemetry.interval",
	"telemetry_flush_timeout": "telemetry.flush_timeout",

	// Store
	"store_backend":     "store.backend",
	"store_path":        "store.path",
	"duckdb_path":       "store.path",
	"duckdb_max_memory": "store.max_memory",
	"duckdb_threads":    "store.threads",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_buffer_size":    "nats.buffer_size",

	// Security
	"cors_origins":           "security.cors_origins",
	"rate_limit_requests":    "security.rate_limit_reqs",
	"rate_limit_window":      "security.rate_limit_window",
	"disable_rate_limit":     "security.rate_limit_disabled",
	"internal_api_token":     "security.internal_token",
	"super_admin_discord_id": "security.super_admin_discord_id",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps e.g. FEED_URL to feed.url.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
