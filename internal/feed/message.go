// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/NV24212/ATC24-IFR/internal/models"
)

// Message handling results, used as the feed_messages_total label.
const (
	resultAccepted  = "accepted"
	resultIgnored   = "ignored"
	resultMalformed = "malformed"
	resultEmpty     = "empty"
)

var errNoPayload = errors.New("missing or non-object d field")

// envelope is the upstream frame shape: {"t": type, "d": payload}.
type envelope struct {
	Type string          `json:"t"`
	Data json.RawMessage `json:"d"`
}

// decodeMessage classifies one text frame. An event is returned only for
// resultAccepted; err is set only for resultMalformed.
func decodeMessage(data []byte, allowed map[string]struct{}, receivedAt time.Time) (models.StreamEvent, string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.StreamEvent{}, resultMalformed, fmt.Errorf("decode envelope: %w", err)
	}

	if _, ok := allowed[env.Type]; !ok {
		return models.StreamEvent{}, resultIgnored, nil
	}

	if len(env.Data) == 0 {
		return models.StreamEvent{}, resultMalformed, errNoPayload
	}
	var fields map[string]any
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return models.StreamEvent{}, resultMalformed, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	if fields == nil {
		return models.StreamEvent{}, resultMalformed, errNoPayload
	}
	if len(fields) == 0 {
		return models.StreamEvent{}, resultEmpty, nil
	}

	return models.NewStreamEvent(env.Type, fields, receivedAt), resultAccepted, nil
}

func allowSet(types []string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}
