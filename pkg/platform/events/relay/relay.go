// Package relay drains the event outbox into a downstream sink. It runs as a
// background worker next to the HTTP server.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"synapse/pkg/platform/circuit"
	"synapse/pkg/platform/events"
)

// Outbox is the read side of an events store.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]events.Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink delivers a batch of events downstream. A nil error means every event
// in the batch was acknowledged.
type Sink interface {
	Send(ctx context.Context, batch []events.Event) error
}

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
	// defaultBackoff is the poll interval while the breaker is open.
	defaultBackoff = 15 * time.Second
)

// Relay polls the outbox and forwards pending events. Delivery is at least
// once: a crash between Send and MarkPublished resends the batch.
type Relay struct {
	outbox    Outbox
	sink      Sink
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *Metrics
	interval  time.Duration
	backoff   time.Duration
	batchSize int
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.backoff = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) {
		r.breaker = b
	}
}

func New(outbox Outbox, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		sink:      sink,
		breaker:   circuit.New("event-relay"),
		logger:    slog.Default(),
		interval:  defaultInterval,
		backoff:   defaultBackoff,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "event relay started", "interval", r.interval, "batch_size", r.batchSize)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "event relay stopped")
			return nil
		case <-timer.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "event relay flush failed", "error", err, "breaker", r.breaker.State())
			}
			next := r.interval
			if r.breaker.IsOpen() {
				next = r.backoff
			}
			timer.Reset(next)
		}
	}
}

// Flush forwards one batch and returns how many events were delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	batch, err := r.outbox.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()
	if err := r.sink.Send(ctx, batch); err != nil {
		_, change := r.breaker.RecordFailure()
		if change.Opened {
			r.logger.ErrorContext(ctx, "event relay circuit opened", "breaker", r.breaker.Name())
		}
		if r.metrics != nil {
			r.metrics.IncSendFailures()
			r.metrics.SetBreakerOpen(r.breaker.IsOpen())
		}
		return 0, err
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "event relay circuit closed", "breaker", r.breaker.Name())
	}

	ids := make([]uuid.UUID, len(batch))
	for i, e := range batch {
		ids[i] = e.ID
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}

	if r.metrics != nil {
		r.metrics.AddRelayed(len(batch))
		r.metrics.ObserveSendDuration(time.Since(start).Seconds())
		r.metrics.SetBreakerOpen(r.breaker.IsOpen())
	}
	return len(batch), nil
}
