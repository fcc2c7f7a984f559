package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/events"
	"synapse/pkg/testutil"
)

type recordingCache struct {
	dropped []id.PlanID
	err     error
}

func (c *recordingCache) Invalidate(_ context.Context, planID id.PlanID) error {
	if c.err != nil {
		return c.err
	}
	c.dropped = append(c.dropped, planID)
	return nil
}

func event(t *testing.T, planID id.PlanID, payload events.Payload) events.Event {
	t.Helper()
	e, err := events.New(context.Background(), planID, payload)
	require.NoError(t, err)
	return e
}

func TestSubscriber(t *testing.T) {
	ctx := context.Background()
	planID := id.PlanID(uuid.New())

	testutil.Given(t, "a subscriber backed by a cache", func(t *testing.T) {
		cache := &recordingCache{}
		router := New(cache, nil)

		testutil.When(t, "a plan is stored, purchased and retiered", func(t *testing.T) {
			require.NoError(t, router.Handle(ctx, event(t, planID, events.PlanStored{PlanID: planID, Tier: id.TierHot})))
			require.NoError(t, router.Handle(ctx, event(t, planID, events.PlanPurchased{PlanID: planID, Buyer: "GBUYER"})))
			require.NoError(t, router.Handle(ctx, event(t, planID, events.TierChanged{PlanID: planID, OldTier: id.TierHot, NewTier: id.TierCold})))

			testutil.Then(t, "only the mutations after publish drop the cached plan", func(t *testing.T) {
				assert.Equal(t, []id.PlanID{planID, planID}, cache.dropped)
			})
		})
	})

	testutil.Given(t, "a cache that cannot be reached", func(t *testing.T) {
		router := New(&recordingCache{err: errors.New("connection refused")}, nil)

		testutil.Then(t, "the error stops the consumer so the event is redelivered", func(t *testing.T) {
			err := router.Handle(ctx, event(t, planID, events.TierChanged{PlanID: planID}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), planID.String())
		})
	})

	testutil.Given(t, "a deployment without a cache", func(t *testing.T) {
		router := New(nil, nil)

		testutil.Then(t, "events are accepted", func(t *testing.T) {
			assert.NoError(t, router.Handle(ctx, event(t, planID, events.PlanPurchased{PlanID: planID})))
		})
	})
}
