// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package config

import (
	"fmt"

	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/validation"
)

// Validate runs the struct tag rules and then the cross-field checks.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if err := validateSchemeURL(c.Feed.URL, "feed.url", "ws", "wss"); err != nil {
		return err
	}
	if c.Feed.BackoffBase > c.Feed.BackoffMax {
		return fmt.Errorf("feed.backoff_base (%s) must not exceed feed.backoff_max (%s)",
			c.Feed.BackoffBase, c.Feed.BackoffMax)
	}
	return nil
}

func (c *Config) validateUpstream() error {
	return validateHTTPBaseURL(c.Upstream.BaseURL, "upstream.base_url")
}

// A timed-out write delays the next tick, so the write bound must fit
// inside one interval.
func (c *Config) validateTelemetry() error {
	if c.Telemetry.FlushTimeout > c.Telemetry.Interval {
		return fmt.Errorf("telemetry.flush_timeout (%s) must not exceed telemetry.interval (%s)",
			c.Telemetry.FlushTimeout, c.Telemetry.Interval)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Backend == "badger" && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the badger backend")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required when nats.enabled=true")
	}
	return validateSchemeURL(c.NATS.URL, "nats.url", "nats", "tls", "ws", "wss")
}

func (c *Config) validateSecurity() error {
	if c.Server.Environment == "production" {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				logging.Warn().Msg("security.cors_origins allows every origin in production")
				break
			}
		}
	}
	return nil
}
