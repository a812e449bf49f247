// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package main is the entry point for the ATC24 IFR backend.

The server keeps a rolling cache of flight plans from the 24data websocket,
proxies the controllers and ATIS lists with TTL caching, and batches page
visit and clearance telemetry into DuckDB or Badger.

# Application Architecture

	RootSupervisor ("atc24-ifr")
	├── FeedSupervisor ("feed-layer")
	│   ├── feed-connector
	│   └── telemetry-batcher
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   ├── nats-publisher (NATS_ENABLED=true)
	│   ├── embedded-nats (NATS_EMBEDDED=true)
	│   └── store-gc (STORE_BACKEND=badger)
	└── APISupervisor ("api-layer")
	    └── http-server

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, with the last error lines kept for /api/full-status
 3. Store: DuckDB or Badger
 4. Feed: ring buffer and connector, with listeners for the browser hub and NATS
 5. Upstream client and telemetry batcher
 6. HTTP router
 7. Supervisor tree

Configuration errors and a store that cannot be opened are fatal. Everything
after that runs under supervision and is restarted on failure.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the batcher
performs one final flush, the connector closes its socket, and the store is
closed last.

# Example Usage

	export FEED_URL=wss://24data.ptfs.app/wss
	export STORE_BACKEND=badger STORE_PATH=/data/badger
	export INTERNAL_API_TOKEN=$(openssl rand -hex 32)
	./atc24-ifr
*/
package main
