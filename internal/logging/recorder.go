// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package logging

import (
	"bytes"

	"github.com/rs/zerolog"

	"github.com/NV24212/ATC24-IFR/internal/cache"
)

// DefaultErrorHistory is how many error lines an ErrorRecorder keeps.
const DefaultErrorHistory = 25

// ErrorRecorder keeps the most recent error-level log lines for the status
// endpoint. It is a zerolog.LevelWriter; pass it as Config.Recorder.
type ErrorRecorder struct {
	lines *cache.Ring[string]
}

var _ zerolog.LevelWriter = (*ErrorRecorder)(nil)

// NewErrorRecorder keeps up to size lines. size < 1 uses DefaultErrorHistory.
func NewErrorRecorder(size int) *ErrorRecorder {
	if size < 1 {
		size = DefaultErrorHistory
	}
	return &ErrorRecorder{lines: cache.NewRing[string](size)}
}

// Write ignores events without a level.
func (r *ErrorRecorder) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel records p when level is error or above.
func (r *ErrorRecorder) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		r.lines.Push(string(bytes.TrimSpace(p)))
	}
	return len(p), nil
}

// Lines returns recorded lines, newest first.
func (r *ErrorRecorder) Lines() []string {
	return r.lines.Snapshot()
}

// Count returns how many lines are held.
func (r *ErrorRecorder) Count() int {
	return r.lines.Len()
}
