// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillAdapter_Error(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := NewWatermillLoggerWithLogger(zerolog.New(&buf))
	a.Error("publish failed", errors.New("nats: timeout"), watermill.LogFields{"topic": "ifr.flightplans.main"})

	output := buf.String()
	for _, want := range []string{
		`"level":"error"`,
		`"error":"nats: timeout"`,
		`"topic":"ifr.flightplans.main"`,
		`"message":"publish failed"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestWatermillAdapter_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := NewWatermillLoggerWithLogger(zerolog.New(&buf)).With(watermill.LogFields{"publisher": "nats"})
	a.Info("connected", watermill.LogFields{"url": "nats://127.0.0.1:4222"})

	output := buf.String()
	if !strings.Contains(output, `"publisher":"nats"`) {
		t.Errorf("expected bound field, got: %s", output)
	}
	if !strings.Contains(output, `"url":"nats://127.0.0.1:4222"`) {
		t.Errorf("expected call field, got: %s", output)
	}
}

func TestWatermillAdapter_DebugFiltered(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := NewWatermillLoggerWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))
	a.Debug("noisy", nil)
	a.Trace("noisier", nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output below info, got: %s", buf.String())
	}
}
