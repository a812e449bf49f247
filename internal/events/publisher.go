// ATC24 IFR - Flight Plan Feed and Clearance Telemetry Backend
// Copyright 2026 NV24212
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NV24212/ATC24-IFR

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/NV24212/ATC24-IFR/internal/breaker"
	"github.com/NV24212/ATC24-IFR/internal/config"
	"github.com/NV24212/ATC24-IFR/internal/logging"
	"github.com/NV24212/ATC24-IFR/internal/metrics"
	"github.com/NV24212/ATC24-IFR/internal/models"
)

// DefaultSubjectPrefix is used when the configured prefix is empty.
const DefaultSubjectPrefix = "ifr.flightplans"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("events: publisher closed")

// Stats counts publisher outcomes.
type Stats struct {
	Published int64
	Failed    int64
	Dropped   int64
	Queued    int
}

// Publisher fans accepted flight plans out to NATS. Enqueue never blocks the
// caller; a full buffer drops the event.
type Publisher struct {
	publisher message.Publisher
	breaker   *breaker.Breaker[struct{}]
	prefix    string
	queue     chan models.StreamEvent
	logger    watermill.LoggerAdapter

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to cfg.URL through watermill-nats. Core NATS is used;
// flight plans are live data and are not persisted in JetStream.
func NewPublisher(cfg *config.NATSConfig) (*Publisher, error) {
	if cfg == nil {
		return nil, errors.New("events: nil config")
	}
	logger := logging.NewWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.Name("atc24-ifr"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	size := cfg.BufferSize
	if size < 1 {
		size = 256
	}
	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &Publisher{
		publisher: pub,
		breaker:   breaker.New[struct{}](breaker.DefaultConfig("nats-publisher")),
		prefix:    prefix,
		queue:     make(chan models.StreamEvent, size),
		logger:    logger,
	}, nil
}

// Subject returns the NATS subject for events of the given source.
func Subject(prefix, source string) string {
	if source == "" {
		source = "unknown"
	}
	return prefix + "." + strings.ToLower(source)
}

// Enqueue buffers ev for the Run loop. It is safe to register as a
// feed.Listener.
func (p *Publisher) Enqueue(ev models.StreamEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.dropped.Add(1)
		metrics.NATSPublishDropped.Inc()
	}
}

// Run publishes queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.queue:
			if err := p.Publish(ev); err != nil {
				if errors.Is(err, ErrClosed) {
					return err
				}
				logging.Warn().Err(err).Str("callsign", ev.Callsign()).Msg("Failed to publish flight plan")
			}
		}
	}
}

// Publish sends ev synchronously with circuit breaker protection.
func (p *Publisher) Publish(ev models.StreamEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("source", ev.Source)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	subject := Subject(p.prefix, ev.Source)
	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(subject, msg)
	})
	if err != nil {
		p.failed.Add(1)
		metrics.NATSPublishFailures.Inc()
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.published.Add(1)
	metrics.NATSPublished.Inc()
	return nil
}

// Stats returns a snapshot of publisher counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published: p.published.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
		Queued:    len(p.queue),
	}
}

// BreakerState reports the publish circuit breaker state.
func (p *Publisher) BreakerState() string {
	return p.breaker.State()
}

// Close closes the NATS connection. Queued events are discarded.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
