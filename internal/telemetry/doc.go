// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

/*
Package telemetry batches page visit and clearance generation records.

Request handlers call Batcher.Submit and return immediately. The batch is
written to a BulkInserter when it reaches the configured threshold (in the
submitting goroutine, outside the lock) or when the Run ticker fires. Writes
are grouped by table and bounded by FlushTimeout.

Delivery is at most once: a failed write is logged and its records are
dropped. Callers never learn the outcome.
*/
package telemetry
