package store

import (
	"context"
	"sync"

	"synapse/internal/settings/models"
	id "synapse/pkg/domain"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
)

// InMemory holds the configuration singleton and the global counters.
type InMemory struct {
	mu     sync.RWMutex
	config *models.Configuration
	stats  models.Stats
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Load(_ context.Context) (*models.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil, sentinel.ErrNotFound
	}
	cfg := *s.config
	return &cfg, nil
}

// CreateIfAbsent stores cfg and zeroes the counters, or fails with
// ErrAlreadyUsed when a configuration exists.
func (s *InMemory) CreateIfAbsent(ctx context.Context, cfg *models.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config != nil {
		return sentinel.ErrAlreadyUsed
	}
	stored := *cfg
	prevStats := s.stats
	s.config = &stored
	s.stats = models.Stats{}
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.config = nil
		s.stats = prevStats
	})
	return nil
}

func (s *InMemory) UpdateOperator(ctx context.Context, operator id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return sentinel.ErrNotFound
	}
	prev := s.config.Operator
	s.config.Operator = operator
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.config != nil {
			s.config.Operator = prev
		}
	})
	return nil
}

func (s *InMemory) Stats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return models.Stats{}, sentinel.ErrNotFound
	}
	return s.stats, nil
}

func (s *InMemory) IncrementPlans(ctx context.Context) (uint32, error) {
	return s.increment(ctx, func(st *models.Stats) *uint32 { return &st.TotalPlans })
}

func (s *InMemory) IncrementPurchases(ctx context.Context) (uint32, error) {
	return s.increment(ctx, func(st *models.Stats) *uint32 { return &st.TotalPurchases })
}

func (s *InMemory) increment(ctx context.Context, field func(*models.Stats) *uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return 0, sentinel.ErrNotFound
	}
	counter := field(&s.stats)
	prev := *counter
	*counter = prev + 1
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		*field(&s.stats) = prev
	})
	return *counter, nil
}
