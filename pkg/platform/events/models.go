package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/google/uuid"

	id "synapse/pkg/domain"
	"synapse/pkg/requestcontext"
)

// Type names a marketplace notification.
type Type string

const (
	TypePlanStored    Type = "plan_stored"
	TypePlanPurchased Type = "plan_purchased"
	TypeTierChanged   Type = "tier_changed"
)

// Event is emitted from domain logic once per successful mutation. It is the
// unit written to the outbox and the value relayed to Kafka.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	PlanID    id.PlanID       `json:"plan_id"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// PlanStored is published when a new plan enters the registry.
type PlanStored struct {
	PlanID         id.PlanID      `json:"id"`
	ContentHash    id.ContentHash `json:"hash"`
	Contributor    id.AccountID   `json:"contributor"`
	Title          string         `json:"title"`
	Tags           []string       `json:"tags"`
	ContentLocator string         `json:"cid"`
	Tier           id.Tier        `json:"tier"`
}

func (PlanStored) eventType() Type { return TypePlanStored }

// PlanPurchased is published after a split payment settles.
type PlanPurchased struct {
	PlanID      id.PlanID    `json:"id"`
	Buyer       id.AccountID `json:"buyer"`
	Amount      big.Int      `json:"amount"`
	Contributor id.AccountID `json:"contributor"`
}

func (PlanPurchased) eventType() Type { return TypePlanPurchased }

// TierChanged is published when a plan is explicitly retiered.
type TierChanged struct {
	PlanID  id.PlanID `json:"id"`
	OldTier id.Tier   `json:"old"`
	NewTier id.Tier   `json:"new"`
}

func (TierChanged) eventType() Type { return TypeTierChanged }

// Payload is implemented by the typed notification bodies above.
type Payload interface {
	eventType() Type
}

// New stamps a payload with an ID, the request time and the request ID.
func New(ctx context.Context, planID id.PlanID, payload Payload) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", payload.eventType(), err)
	}
	return Event{
		ID:        uuid.New(),
		Type:      payload.eventType(),
		PlanID:    planID,
		Timestamp: requestcontext.Now(ctx).UTC(),
		RequestID: requestcontext.RequestID(ctx),
		Payload:   raw,
	}, nil
}

// Decode unmarshals the payload into dst.
func (e Event) Decode(dst Payload) error {
	if dst.eventType() != e.Type {
		return fmt.Errorf("event %s cannot decode into %s", e.Type, dst.eventType())
	}
	return json.Unmarshal(e.Payload, dst)
}

// Store persists emitted events. Implementations must join the transaction
// carried by ctx so that an event exists only if its mutation committed.
type Store interface {
	Append(ctx context.Context, event Event) error
}
