// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package supervisor runs the long-lived services under a suture v4 tree.

	RootSupervisor ("atc24-ifr")
	├── FeedSupervisor ("feed-layer")
	│   ├── ConnectorService
	│   └── BatcherService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   ├── PublisherService (nats.enabled)
	│   ├── EmbeddedNATSService (nats.embedded_server)
	│   └── StoreGCService (store.backend=badger)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events are logged through sutureslog and the slog adapter in
internal/logging. Services live in the services subpackage.
*/
package supervisor
