// Package subscriber consumes plan events back from the event topic.
//
// The registry writes its Redis copy of a plan only after the transaction
// commits, and that write may fail or race with another replica. Purchase and
// tier events name every plan whose cached copy can be stale, so dropping the
// entry on receipt bounds staleness by relay lag instead of cache TTL.
package subscriber

import (
	"context"
	"fmt"
	"log/slog"

	"synapse/internal/platform/kafka"
	id "synapse/pkg/domain"
	"synapse/pkg/platform/events"
)

// Invalidator drops a cached plan.
type Invalidator interface {
	Invalidate(ctx context.Context, planID id.PlanID) error
}

type subscriber struct {
	cache  Invalidator
	logger *slog.Logger
}

// New returns a router for the plan event topic. cache may be nil when the
// deployment runs without Redis; events are then only logged.
func New(cache Invalidator, logger *slog.Logger) *kafka.Router {
	s := &subscriber{cache: cache, logger: logger}
	router := kafka.NewRouter(logger, kafka.HandlerFunc(s.notify))
	router.Register(events.TypePlanPurchased, kafka.HandlerFunc(s.invalidate))
	router.Register(events.TypeTierChanged, kafka.HandlerFunc(s.invalidate))
	return router
}

func (s *subscriber) notify(ctx context.Context, event events.Event) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "plan event",
			"event_id", event.ID,
			"event_type", event.Type,
			"plan_id", event.PlanID,
			"request_id", event.RequestID,
			"log_type", "notification",
		)
	}
	return nil
}

func (s *subscriber) invalidate(ctx context.Context, event events.Event) error {
	if err := s.notify(ctx, event); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, event.PlanID); err != nil {
		return fmt.Errorf("invalidate cached plan %s: %w", event.PlanID, err)
	}
	return nil
}
