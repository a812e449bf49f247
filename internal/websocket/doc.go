// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package websocket pushes accepted flight plans to browsers.

The hub owns the client set. Each client has a read pump, which answers
{"type":"ping"} with {"type":"pong"}, and a write pump, which sends queued
messages and keepalive pings. Flight plans are sent as

	{"type":"flight_plan","data":{...stream event...}}

A client whose send queue fills up is disconnected rather than slowing the
broadcast for everyone else.
*/
package websocket
