// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/NV24212/ATC24-IFR/internal/cache"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/feed"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/models"
	"github.com/NV24212/ATC24-IFR/internal/upstream"
)

// loadFunc loads the effective configuration.
type loadFunc func() (*config.Config, error)

func newRootCommand(out io.Writer, load loadFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "ifrctl",
		Short:         "ATC24 IFR operator CLI",
		Long:          "ifrctl inspects the 24data feeds using the server's configuration (config.yaml and environment).",
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level for diagnostic output on stderr")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if level, _ := cmd.Flags().GetString("log-level"); logging.ValidLevel(level) {
			logging.SetLevelString(level)
		}
	}
	root.SetOut(out)

	root.AddCommand(
		newTailCommand(load),
		newSnapshotCommand("controllers", "Fetch the controllers list once", load, (*upstream.Client).Controllers),
		newSnapshotCommand("atis", "Fetch the ATIS list once", load, (*upstream.Client).ATIS),
		newConfigCommand(load),
	)
	return root
}

// newTailCommand constructs the `tail` command.
func newTailCommand(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print accepted flight plans from the live feed as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if url, _ := cmd.Flags().GetString("url"); url != "" {
				cfg.Feed.URL = url
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return tail(cmd.Context(), cmd.OutOrStdout(), &cfg.Feed, limit)
		},
	}
	cmd.Flags().Int("limit", 0, "stop after this many events (0 = until interrupted)")
	cmd.Flags().String("url", "", "override the feed websocket URL")
	return cmd
}

func tail(ctx context.Context, out io.Writer, cfg *config.FeedConfig, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	connector := feed.NewConnector(cfg, cache.NewRing[models.StreamEvent](cfg.Capacity))
	defer connector.Close()

	var (
		mu      sync.Mutex
		seen    int
		lineErr error
	)
	enc := json.NewEncoder(out)
	connector.AddListener(func(ev models.StreamEvent) {
		mu.Lock()
		defer mu.Unlock()
		if limit > 0 && seen >= limit {
			return
		}
		if err := enc.Encode(ev); err != nil {
			lineErr = err
			cancel()
			return
		}
		seen++
		if limit > 0 && seen >= limit {
			cancel()
		}
	})

	err := connector.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if lineErr != nil {
		return fmt.Errorf("write event: %w", lineErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, feed.ErrClosed) {
		return nil
	}
	return err
}

// snapshotFunc is one of the upstream.Client fetch methods.
type snapshotFunc func(*upstream.Client, context.Context) (upstream.Snapshot, error)

func newSnapshotCommand(use, short string, load loadFunc, fetch snapshotFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if base, _ := cmd.Flags().GetString("base-url"); base != "" {
				cfg.Upstream.BaseURL = base
			}
			snap, err := fetch(upstream.NewClient(&cfg.Upstream), cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch %s: %w", use, err)
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().String("base-url", "", "override the upstream API base URL")
	return cmd
}

// newConfigCommand constructs the `config` command.
func newConfigCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cfg.Redacted())
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
