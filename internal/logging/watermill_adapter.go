// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter with zerolog.
type WatermillAdapter struct {
	logger zerolog.Logger
	fields watermill.LogFields
}

// NewWatermillLogger returns an adapter tagged with component=watermill.
func NewWatermillLogger() *WatermillAdapter {
	return &WatermillAdapter{logger: WithComponent("watermill")}
}

// NewWatermillLoggerWithLogger wraps a specific zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillLoggerWithLogger(logger zerolog.Logger) *WatermillAdapter {
	return &WatermillAdapter{logger: logger}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.write(a.logger.Error().Err(err), msg, fields)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.write(a.logger.Info(), msg, fields)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.write(a.logger.Debug(), msg, fields)
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.write(a.logger.Trace(), msg, fields)
}

// With returns an adapter that always adds fields.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}

func (a *WatermillAdapter) write(e *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range a.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)
