// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Package config loads layered application configuration with Koanf v2.
//
// Values come from three layers, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: CONFIG_PATH, else config.yaml in the working
//     directory, else /etc/atc24-ifr/config.yaml
//  3. Environment variables listed in envMappings
//
// Example YAML:
//
//	feed:
//	  url: wss://24data.ptfs.app/wss
//	  capacity: 50
//	  backoff_base: 5s
//	  backoff_max: 5m
//	telemetry:
//	  threshold: 50
//	  interval: 10s
//	  flush_timeout: 8s
//	store:
//	  backend: duckdb
//	  path: /data/atc24-ifr.duckdb
//
// Example environment:
//
//	FEED_URL=wss://24data.ptfs.app/wss
//	TELEMETRY_INTERVAL=10s
//	FEED_ALLOWED_TYPES=FLIGHT_PLAN,EVENT_FLIGHT_PLAN
//	INTERNAL_API_TOKEN=...
//
// Validate applies go-playground/validator tags through internal/validation,
// then the checks that span several fields, such as telemetry.flush_timeout
// not exceeding telemetry.interval.
package config
