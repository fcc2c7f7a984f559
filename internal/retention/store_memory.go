package retention

import (
	"context"
	"sync"
	"time"

	txcontext "synapse/pkg/platform/tx"
)

// InMemory keeps expiries in a map.
type InMemory struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{expires: make(map[string]time.Time)}
}

func (s *InMemory) ExtendTo(ctx context.Context, key string, candidate time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.expires[key]
	if existed && !candidate.After(prev) {
		return prev, nil
	}
	s.expires[key] = candidate
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.expires[key] = prev
		} else {
			delete(s.expires, key)
		}
	})
	return candidate, nil
}

func (s *InMemory) ExpiresAt(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.expires[key]
	return t, ok, nil
}
