// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewSlogHandler(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	if handler == nil {
		t.Fatal("NewSlogHandler() = nil, want non-nil")
	}
	if handler.attrs != nil || handler.groups != nil {
		t.Error("new handler should carry no attrs or groups")
	}
}

func TestSlogHandler_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	output := buf.String()
	for _, want := range []string{`"level":"info"`, `"level":"warn"`, `"level":"error"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandler_AttrKinds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Info("service restart",
		slog.String("service", "feed-connector"),
		slog.Int("attempt", 3),
		slog.Bool("fatal", false),
		slog.Float64("ratio", 0.5),
		slog.Duration("backoff", 2*time.Second),
	)

	output := buf.String()
	for _, want := range []string{
		`"service":"feed-connector"`,
		`"attempt":3`,
		`"fatal":false`,
		`"ratio":0.5`,
		`"backoff":`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewSlogHandlerWithLogger(zerolog.New(&buf))
	logger := slog.New(base.WithAttrs([]slog.Attr{slog.String("tree", "root")}).WithGroup("svc"))

	logger.Info("hello", slog.String("name", "batcher"))

	output := buf.String()
	if !strings.Contains(output, `"tree":"root"`) {
		t.Errorf("expected pre-bound attr, got: %s", output)
	}
	if !strings.Contains(output, `"svc.name":"batcher"`) {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestSlogHandler_WithGroupEmpty(t *testing.T) {
	t.Parallel()

	h := NewSlogHandler()
	if h.WithGroup("") != h {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled on a warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled on a warn logger")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
