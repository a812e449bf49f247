// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
)

// Flush triggers, used as the telemetry_flushes_total label.
const (
	TriggerThreshold = "threshold"
	TriggerInterval  = "interval"
	TriggerFinal     = "final"
)

// ErrClosed is returned by Close when the batcher was already closed.
var ErrClosed = errors.New("telemetry: batcher closed")

// BulkInserter persists a group of records bound for one table.
type BulkInserter interface {
	BulkInsert(ctx context.Context, table string, records []models.Record) error
}

// Stats holds runtime counters for monitoring.
type Stats struct {
	Submitted     int64     `json:"submitted"`
	Flushed       int64     `json:"flushed"`
	Dropped       int64     `json:"dropped"`
	Flushes       int64     `json:"flushes"`
	FailedFlushes int64     `json:"failed_flushes"`
	Pending       int       `json:"pending"`
	LastFlushTime time.Time `json:"last_flush_time,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Batcher buffers telemetry records and writes them in batches when the
// buffer reaches Threshold or Interval elapses, whichever comes first.
//
// Delivery is at most once. A failed write drops its records; nothing is
// requeued. Submit never reports the outcome of a write.
type Batcher struct {
	sink         BulkInserter
	threshold    int
	interval     time.Duration
	flushTimeout time.Duration
	logger       zerolog.Logger

	mu      sync.Mutex
	pending []models.Record
	closed  bool

	submitted     atomic.Int64
	flushed       atomic.Int64
	dropped       atomic.Int64
	flushes       atomic.Int64
	failedFlushes atomic.Int64
	lastFlushTime atomic.Value // time.Time
	lastError     atomic.Value // string
}

// NewBatcher creates a batcher writing to sink.
func NewBatcher(sink BulkInserter, cfg *config.TelemetryConfig) (*Batcher, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink required")
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if cfg.FlushTimeout <= 0 {
		return nil, fmt.Errorf("flush timeout must be positive")
	}

	b := &Batcher{
		sink:         sink,
		threshold:    cfg.Threshold,
		interval:     cfg.Interval,
		flushTimeout: cfg.FlushTimeout,
		logger:       logging.WithComponent("telemetry"),
		pending:      make([]models.Record, 0, cfg.Threshold),
	}
	// A stalled write must not hold back the next tick by more than one interval.
	if b.flushTimeout > b.interval {
		b.logger.Warn().
			Dur("flush_timeout", b.flushTimeout).
			Dur("interval", b.interval).
			Msg("Flush timeout exceeds the flush interval, capping it at the interval")
		b.flushTimeout = b.interval
	}
	b.lastFlushTime.Store(time.Time{})
	b.lastError.Store("")
	return b, nil
}

// Submit queues rec. When the buffer reaches the threshold the batch is
// written before Submit returns, outside the buffer lock. After Close the
// record is dropped.
func (b *Batcher) Submit(rec models.Record) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.dropped.Add(1)
		metrics.TelemetryDropped.WithLabelValues("closed").Inc()
		b.logger.Warn().Str("table", rec.Table).Msg("Dropping telemetry record submitted after shutdown")
		return
	}
	b.pending = append(b.pending, rec)
	var batch []models.Record
	if len(b.pending) >= b.threshold {
		batch = b.swapLocked()
	}
	b.mu.Unlock()

	b.submitted.Add(1)
	metrics.TelemetrySubmitted.WithLabelValues(rec.Table).Inc()

	if batch != nil {
		_ = b.write(batch, TriggerThreshold)
	}
}

// Run flushes on every interval tick until ctx is done.
func (b *Batcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = b.Flush(TriggerInterval)
		}
	}
}

// Flush writes whatever is buffered. It returns the write error, which
// callers other than shutdown ignore.
func (b *Batcher) Flush(trigger string) error {
	b.mu.Lock()
	batch := b.swapLocked()
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.write(batch, trigger)
}

// Close rejects further submissions and writes the remaining buffer once.
func (b *Batcher) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	batch := b.swapLocked()
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.write(batch, TriggerFinal)
}

// swapLocked hands the buffer to the caller and starts a new one.
func (b *Batcher) swapLocked() []models.Record {
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = make([]models.Record, 0, b.threshold)
	return batch
}

// write inserts batch grouped by table, keeping submission order within each
// table. A failed group is dropped; the other groups are still written.
func (b *Batcher) write(batch []models.Record, trigger string) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.flushTimeout)
	defer cancel()

	var errs []error
	for _, g := range groupByTable(batch) {
		start := time.Now()
		err := b.sink.BulkInsert(ctx, g.table, g.records)
		elapsed := time.Since(start)
		metrics.RecordTelemetryFlush(trigger, elapsed, len(g.records), err)

		if err != nil {
			b.dropped.Add(int64(len(g.records)))
			errs = append(errs, fmt.Errorf("insert %d %s records: %w", len(g.records), g.table, err))
			b.logger.Error().Err(err).
				Str("table", g.table).
				Str("trigger", trigger).
				Int("dropped", len(g.records)).
				Msg("Telemetry flush failed, batch dropped")
			continue
		}

		b.flushed.Add(int64(len(g.records)))
		b.logger.Debug().
			Str("table", g.table).
			Str("trigger", trigger).
			Int("count", len(g.records)).
			Dur("elapsed", elapsed).
			Msg("Telemetry batch flushed")
	}

	b.flushes.Add(1)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		b.failedFlushes.Add(1)
		b.lastError.Store(err.Error())
		return err
	}
	b.lastFlushTime.Store(time.Now())
	b.lastError.Store("")
	return nil
}

type tableGroup struct {
	table   string
	records []models.Record
}

func groupByTable(batch []models.Record) []tableGroup {
	var groups []tableGroup
	index := make(map[string]int, 2)
	for _, rec := range batch {
		i, ok := index[rec.Table]
		if !ok {
			i = len(groups)
			index[rec.Table] = i
			groups = append(groups, tableGroup{table: rec.Table})
		}
		groups[i].records = append(groups[i].records, rec)
	}
	return groups
}

// Stats returns current counters.
func (b *Batcher) Stats() Stats {
	b.mu.Lock()
	pending := len(b.pending)
	b.mu.Unlock()

	s := Stats{
		Submitted:     b.submitted.Load(),
		Flushed:       b.flushed.Load(),
		Dropped:       b.dropped.Load(),
		Flushes:       b.flushes.Load(),
		FailedFlushes: b.failedFlushes.Load(),
		Pending:       pending,
	}
	if t, ok := b.lastFlushTime.Load().(time.Time); ok {
		s.LastFlushTime = t
	}
	if e, ok := b.lastError.Load().(string); ok {
		s.LastError = e
	}
	return s
}
