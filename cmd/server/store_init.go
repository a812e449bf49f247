// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package main

import (
	"fmt"

	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/database"
	"github.com/NV24212/ATC24-IFR/internal/kvstore"
	"github.com/NV24212/ATC24-IFR/internal/store"
)

// openStore opens the configured backend. The Badger store is also returned
// on its own so its value log GC can be supervised; it is nil for DuckDB.
func openStore(cfg *config.StoreConfig) (store.Store, *kvstore.Store, error) {
	switch cfg.Backend {
	case "badger":
		var (
			kv  *kvstore.Store
			err error
		)
		if cfg.Path == "" || cfg.Path == database.MemoryPath {
			kv, err = kvstore.OpenInMemory()
		} else {
			kv, err = kvstore.Open(cfg.Path)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		return kv, kv, nil
	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open duckdb store: %w", err)
		}
		return db, nil, nil
	}
}
