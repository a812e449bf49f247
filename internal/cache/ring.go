// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package cache

import "sync"

// DefaultRingCapacity is the number of recent flight plans kept.
const DefaultRingCapacity = 50

// Ring is a fixed-capacity, newest-first history. Pushing into a full ring
// overwrites the oldest slot in O(1).
type Ring[T any] struct {
	mu   sync.RWMutex
	buf  []T
	next int // slot the next Push writes
	n    int
}

// NewRing returns an empty ring. A capacity below 1 uses DefaultRingCapacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = DefaultRingCapacity
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push inserts v as the newest element. It returns the length after insert.
func (r *Ring[T]) Push(v T) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
	return r.n
}

// Snapshot copies the contents newest first. The result is owned by the caller.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.n)
	idx := r.next
	for i := 0; i < r.n; i++ {
		idx--
		if idx < 0 {
			idx = len(r.buf) - 1
		}
		out[i] = r.buf[idx]
	}
	return out
}

// Newest returns the most recent element.
func (r *Ring[T]) Newest() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.n == 0 {
		var zero T
		return zero, false
	}
	idx := r.next - 1
	if idx < 0 {
		idx = len(r.buf) - 1
	}
	return r.buf[idx], true
}

func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.n
}

func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
