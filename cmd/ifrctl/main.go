// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

// Command ifrctl is an operator tool for checking the upstream feeds with the
// same configuration the server uses.
//
//	ifrctl tail --limit 5     print accepted flight plans as JSON lines
//	ifrctl controllers        fetch the controllers list once
//	ifrctl atis               fetch the ATIS list once
//	ifrctl config             print the effective configuration, redacted
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/logging"
)

func main() {
	logging.Init(logging.Config{Level: "warn", Format: "console", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, config.Load)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
