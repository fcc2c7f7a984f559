package store

import (
	"context"
	"sync"

	"synapse/internal/ledger/models"
	id "synapse/pkg/domain"
	txcontext "synapse/pkg/platform/tx"
)

// InMemory keeps each plan's purchase history as an append-only slice.
type InMemory struct {
	mu        sync.RWMutex
	purchases map[id.PlanID][]models.PurchaseRecord
}

func NewInMemory() *InMemory {
	return &InMemory{purchases: make(map[id.PlanID][]models.PurchaseRecord)}
}

func (s *InMemory) Append(ctx context.Context, planID id.PlanID, record models.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevLen := len(s.purchases[planID])
	s.purchases[planID] = append(s.purchases[planID], record)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if prevLen == 0 {
			delete(s.purchases, planID)
			return
		}
		s.purchases[planID] = s.purchases[planID][:prevLen]
	})
	return nil
}

func (s *InMemory) List(_ context.Context, planID id.PlanID) ([]models.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.purchases[planID]
	out := make([]models.PurchaseRecord, len(records))
	copy(out, records)
	return out, nil
}
