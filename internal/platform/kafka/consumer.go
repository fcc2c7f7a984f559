package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"synapse/pkg/platform/events"
)

// Handler processes one decoded plan event. Returning an error stops the
// consumer before the offset is committed, so the event is redelivered.
type Handler interface {
	Handle(ctx context.Context, event events.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event events.Event) error

func (f HandlerFunc) Handle(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}

// Router dispatches events to handlers by event type.
type Router struct {
	handlers map[events.Type]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates a router with an optional fallback for unregistered types.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	return &Router{
		handlers: make(map[events.Type]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

func (r *Router) Register(t events.Type, handler Handler) {
	r.handlers[t] = handler
}

func (r *Router) Handle(ctx context.Context, event events.Event) error {
	handler, ok := r.handlers[event.Type]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, event)
		}
		if r.logger != nil {
			r.logger.WarnContext(ctx, "no handler for event type, skipping",
				"event_type", event.Type,
				"event_id", event.ID,
			)
		}
		return nil
	}
	return handler.Handle(ctx, event)
}

// Consumer reads the plan event topic as part of a consumer group and commits
// offsets only after a whole fetch has been handled.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, topic, group string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled or a handler fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			joined := make([]error, 0, len(errs))
			for _, fe := range errs {
				joined = append(joined, fmt.Errorf("fetch %s/%d: %w", fe.Topic, fe.Partition, fe.Err))
			}
			return errors.Join(joined...)
		}

		var handleErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if handleErr != nil {
				return
			}
			var event events.Event
			if err := json.Unmarshal(record.Value, &event); err != nil {
				if c.logger != nil {
					c.logger.WarnContext(ctx, "skipping undecodable record",
						"topic", record.Topic,
						"offset", record.Offset,
						"error", err,
					)
				}
				return
			}
			handleErr = c.handler.Handle(ctx, event)
		})
		if handleErr != nil {
			return handleErr
		}
		// Handled records are committed even when ctx was cancelled mid-fetch.
		if err := c.client.CommitUncommittedOffsets(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("commit offsets: %w", err)
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
