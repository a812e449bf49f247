// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (config.yaml, or CONFIG_PATH)
//  3. Environment variables: the mapped names in envTransformFunc
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Feed       FeedConfig       `koanf:"feed"`
	Upstream   UpstreamConfig   `koanf:"upstream"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Store      StoreConfig      `koanf:"store"`
	NATS       NATSConfig       `koanf:"nats"`
	Security   SecurityConfig   `koanf:"security"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Environment string        `koanf:"environment" validate:"oneof=development staging production"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig maps onto logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// FeedConfig controls the upstream flight plan websocket.
type FeedConfig struct {
	URL              string        `koanf:"url" validate:"required,url"`
	AllowedTypes     []string      `koanf:"allowed_types" validate:"min=1,dive,required"`
	Capacity         int           `koanf:"capacity" validate:"gte=1"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	ReadTimeout      time.Duration `koanf:"read_timeout" validate:"gt=0"`
	BackoffBase      time.Duration `koanf:"backoff_base" validate:"gt=0"`
	BackoffMax       time.Duration `koanf:"backoff_max" validate:"gt=0"`
	// StaleAfter is how old the newest cached plan may be for the stream to
	// still count as receiving data.
	StaleAfter time.Duration `koanf:"stale_after" validate:"gt=0"`
}

// UpstreamConfig controls the polled controllers and ATIS endpoints.
type UpstreamConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	ControllersTTL time.Duration `koanf:"controllers_ttl" validate:"gt=0"`
	ATISTTL        time.Duration `koanf:"atis_ttl" validate:"gt=0"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	ProbeTimeout   time.Duration `koanf:"probe_timeout" validate:"gt=0"`
	RatePerSecond  float64       `koanf:"rate_per_second" validate:"gt=0"`
	Burst          int           `koanf:"burst" validate:"gte=1"`
}

// TelemetryConfig controls page visit and clearance batching.
type TelemetryConfig struct {
	Threshold    int           `koanf:"threshold" validate:"gte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gt=0"`
	FlushTimeout time.Duration `koanf:"flush_timeout" validate:"gt=0"`
}

// StoreConfig selects and configures the persistent store.
type StoreConfig struct {
	Backend   string `koanf:"backend" validate:"oneof=duckdb badger"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`
}

// NATSConfig controls optional flight plan fan-out.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	SubjectPrefix  string `koanf:"subject_prefix"`
	BufferSize     int    `koanf:"buffer_size" validate:"gte=1"`
}

// SecurityConfig holds CORS, rate limiting and internal endpoint settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	// InternalToken guards POST /api/users. Empty disables the endpoint.
	InternalToken       string `koanf:"internal_token"`
	SuperAdminDiscordID string `koanf:"super_admin_discord_id" validate:"omitempty,snowflake"`
}

// SupervisorConfig maps onto supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Security.InternalToken != "" {
		out.Security.InternalToken = "***"
	}
	out.Feed.AllowedTypes = append([]string(nil), c.Feed.AllowedTypes...)
	out.Security.CORSOrigins = append([]string(nil), c.Security.CORSOrigins...)
	return out
}
