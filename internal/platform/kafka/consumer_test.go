package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/events"
	"synapse/pkg/requestcontext"
	"synapse/pkg/testutil"
)

func newEvent(t *testing.T, payload events.Payload) events.Event {
	t.Helper()
	ctx := requestcontext.WithRequestID(
		requestcontext.WithTime(context.Background(), time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)), "req-42")
	event, err := events.New(ctx, id.PlanID(uuid.New()), payload)
	require.NoError(t, err)
	return event
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "a router with a tier handler and a fallback", func(t *testing.T) {
		var routed, fellBack []events.Type
		router := NewRouter(nil, HandlerFunc(func(_ context.Context, e events.Event) error {
			fellBack = append(fellBack, e.Type)
			return nil
		}))
		router.Register(events.TypeTierChanged, HandlerFunc(func(_ context.Context, e events.Event) error {
			routed = append(routed, e.Type)
			return nil
		}))

		testutil.When(t, "events of both kinds arrive", func(t *testing.T) {
			require.NoError(t, router.Handle(context.Background(), newEvent(t, events.TierChanged{OldTier: id.TierHot, NewTier: id.TierCold})))
			require.NoError(t, router.Handle(context.Background(), newEvent(t, events.PlanStored{Title: "x"})))

			testutil.Then(t, "each is dispatched by type", func(t *testing.T) {
				assert.Equal(t, []events.Type{events.TypeTierChanged}, routed)
				assert.Equal(t, []events.Type{events.TypePlanStored}, fellBack)
			})
		})
	})

	testutil.Given(t, "a router without a fallback", func(t *testing.T) {
		router := NewRouter(nil, nil)
		testutil.Then(t, "unregistered types are skipped", func(t *testing.T) {
			assert.NoError(t, router.Handle(context.Background(), newEvent(t, events.PlanStored{})))
		})
	})

	testutil.Given(t, "a failing handler", func(t *testing.T) {
		router := NewRouter(nil, nil)
		router.Register(events.TypePlanStored, HandlerFunc(func(context.Context, events.Event) error {
			return errors.New("downstream unavailable")
		}))
		testutil.Then(t, "the error reaches the consumer", func(t *testing.T) {
			assert.Error(t, router.Handle(context.Background(), newEvent(t, events.PlanStored{})))
		})
	})
}

func TestToRecord(t *testing.T) {
	event := newEvent(t, events.TierChanged{OldTier: id.TierHot, NewTier: id.TierArchive})

	record, err := toRecord("synapse.plan-events", event)
	require.NoError(t, err)

	assert.Equal(t, "synapse.plan-events", record.Topic)
	assert.Equal(t, event.PlanID.String(), string(record.Key))
	assert.Equal(t, event.Timestamp, record.Timestamp)
	require.Len(t, record.Headers, 2)
	assert.Equal(t, HeaderEventType, record.Headers[0].Key)
	assert.Equal(t, "tier_changed", string(record.Headers[0].Value))
	assert.Equal(t, "req-42", string(record.Headers[1].Value))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	var payload events.TierChanged
	require.NoError(t, decoded.Decode(&payload))
	assert.Equal(t, id.TierArchive, payload.NewTier)
}
