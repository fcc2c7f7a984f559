package store

import (
	"context"
	"sync"

	"synapse/internal/registry/models"
	id "synapse/pkg/domain"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
)

// InMemory keeps plans, the content index and the contributor index in maps.
// Every write registers a compensation so a failed transaction leaves no trace.
type InMemory struct {
	mu           sync.RWMutex
	plans        map[id.PlanID]*models.Plan
	content      map[id.ContentHash]id.PlanID
	contributors map[id.AccountID][]id.PlanID
}

func NewInMemory() *InMemory {
	return &InMemory{
		plans:        make(map[id.PlanID]*models.Plan),
		content:      make(map[id.ContentHash]id.PlanID),
		contributors: make(map[id.AccountID][]id.PlanID),
	}
}

// Create inserts a new plan. An existing ID yields ErrConflict.
func (s *InMemory) Create(ctx context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; ok {
		return sentinel.ErrConflict
	}
	planID := plan.ID
	s.plans[planID] = plan.Clone()
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.plans, planID)
	})
	return nil
}

func (s *InMemory) Get(_ context.Context, planID id.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return plan.Clone(), nil
}

// Save overwrites an existing plan.
func (s *InMemory) Save(ctx context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.plans[plan.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.plans[plan.ID] = plan.Clone()
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.plans[prev.ID] = prev
	})
	return nil
}

// IndexContent records hash as taken by planID. A hash that is already
// indexed yields ErrAlreadyUsed.
func (s *InMemory) IndexContent(ctx context.Context, hash id.ContentHash, planID id.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.content[hash]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.content[hash] = planID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.content, hash)
	})
	return nil
}

func (s *InMemory) ContentExists(_ context.Context, hash id.ContentHash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.content[hash]
	return ok, nil
}

// AppendContributorPlan adds planID to the end of the contributor's list.
func (s *InMemory) AppendContributorPlan(ctx context.Context, contributor id.AccountID, planID id.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevLen := len(s.contributors[contributor])
	s.contributors[contributor] = append(s.contributors[contributor], planID)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if prevLen == 0 {
			delete(s.contributors, contributor)
			return
		}
		s.contributors[contributor] = s.contributors[contributor][:prevLen]
	})
	return nil
}

func (s *InMemory) ContributorPlans(_ context.Context, contributor id.AccountID) ([]id.PlanID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.contributors[contributor]
	out := make([]id.PlanID, len(ids))
	copy(out, ids)
	return out, nil
}
