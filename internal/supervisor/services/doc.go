// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package services adapts the application's long-running components to
suture's Serve(ctx) error contract.

Each wrapper accepts a small interface rather than the concrete type, so the
package does not import the components it supervises:

	ConnectorService      feed.Connector.Run
	BatcherService        telemetry.Batcher.Run, then one final flush
	WebSocketHubService   websocket.Hub.RunWithContext
	PublisherService      events.Publisher.Run, Close on shutdown
	EmbeddedNATSService   events.EmbeddedServer lifetime
	StoreGCService        kvstore.Store.Run (Badger value log GC)
	HTTPServerService     http.Server with graceful shutdown

A component that reports it was closed permanently is translated to
suture.ErrDoNotRestart so the supervisor stops restarting it.
*/
package services
