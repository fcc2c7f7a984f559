package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/events"
	"synapse/pkg/platform/events/store/memory"
	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
)

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, events.Event) error { return f.err }

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := events.NewPublisher(store)

	planID := id.PlanID(uuid.New())
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-1")

	event, err := events.New(ctx, planID, events.PlanPurchased{
		PlanID:      planID,
		Buyer:       "GBUYER",
		Amount:      big.NewInt(10_000_000),
		Contributor: "GCONTRIB",
	})
	require.NoError(t, err)
	require.NoError(t, pub.Emit(ctx, event))

	listed, err := store.ListByPlan(ctx, planID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, events.TypePlanPurchased, listed[0].Type)
	assert.Equal(t, now, listed[0].Timestamp)
	assert.Equal(t, "req-1", listed[0].RequestID)

	var decoded events.PlanPurchased
	require.NoError(t, listed[0].Decode(&decoded))
	assert.Equal(t, "10000000", decoded.Amount.String())
	assert.Equal(t, id.AccountID("GCONTRIB"), decoded.Contributor)

	assert.Error(t, listed[0].Decode(&events.TierChanged{}))
}

func TestPublisher_FailClosed(t *testing.T) {
	boom := errors.New("disk full")
	pub := events.NewPublisher(failingStore{err: boom})
	planID := id.PlanID(uuid.New())

	event, err := events.New(context.Background(), planID, events.TierChanged{PlanID: planID, OldTier: id.TierHot, NewTier: id.TierCold})
	require.NoError(t, err)

	err = pub.Emit(context.Background(), event)
	require.ErrorIs(t, err, boom)
}

func TestPublisher_RejectsIncompleteEvents(t *testing.T) {
	pub := events.NewPublisher(memory.NewInMemoryStore())
	assert.Error(t, pub.Emit(context.Background(), events.Event{}))
	assert.Error(t, pub.Emit(context.Background(), events.Event{Type: events.TypePlanStored}))
}

func TestPublisher_RolledBackEventsVanish(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := events.NewPublisher(store)
	planID := id.PlanID(uuid.New())
	boom := errors.New("boom")

	err := txcontext.NewMemoryRunner().RunInTx(context.Background(), func(ctx context.Context) error {
		event, err := events.New(ctx, planID, events.PlanStored{PlanID: planID, Title: "t", Tier: id.TierHot})
		require.NoError(t, err)
		require.NoError(t, pub.Emit(ctx, event))
		return boom
	})
	require.ErrorIs(t, err, boom)

	listed, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}
