package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/events"
	txcontext "synapse/pkg/platform/tx"
)

type entry struct {
	event     events.Event
	published bool
}

// InMemoryStore is an append-only event log that doubles as an outbox for
// the relay. Appends made inside a failed transaction are discarded.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{event: event}
	s.entries = append(s.entries, e)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.entries) - 1; i >= 0; i-- {
			if s.entries[i] == e {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return
			}
		}
	})
	return nil
}

// List returns every event in emission order.
func (s *InMemoryStore) List(_ context.Context) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.event)
	}
	return out, nil
}

func (s *InMemoryStore) ListByPlan(_ context.Context, planID id.PlanID) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.entries {
		if e.event.PlanID == planID {
			out = append(out, e.event)
		}
	}
	return out, nil
}

// Pending returns up to limit events not yet handed to the relay.
func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.entries {
		if len(out) >= limit {
			break
		}
		if !e.published {
			out = append(out, e.event)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, eventID := range ids {
		want[eventID] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if _, ok := want[e.event.ID]; ok {
			e.published = true
		}
	}
	return nil
}

// Clear drops every event.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
