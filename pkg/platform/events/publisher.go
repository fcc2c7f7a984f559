package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Publisher emits marketplace events with fail-closed semantics.
// Writes are synchronous: if the event cannot be persisted the caller gets an
// error and its operation must fail.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	start := time.Now()

	if event.Type == "" {
		return fmt.Errorf("event requires Type")
	}
	if event.PlanID.IsNil() {
		return fmt.Errorf("%s event requires PlanID", event.Type)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "event persistence failed",
				"event_type", event.Type,
				"plan_id", event.PlanID,
				"error", err,
			)
		}
		return fmt.Errorf("persist %s event: %w", event.Type, err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEmitted(event.Type)
	}
	return nil
}
