// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package feed

import "time"

// Backoff is a doubling delay bounded by a maximum. It is not safe for
// concurrent use; the connector's run loop is its only caller.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff returns a backoff starting at base. A max below base is raised to base.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max, current: base}
}

// Next returns the delay to wait now and doubles the following one, capped at max.
func (b *Backoff) Next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.max || b.current <= 0 {
		b.current = b.max
	}
	return d
}

// Peek returns the delay the next call to Next will return.
func (b *Backoff) Peek() time.Duration {
	return b.current
}

// Reset returns the delay to base.
func (b *Backoff) Reset() {
	b.current = b.base
}
