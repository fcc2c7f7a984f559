package models

import (
	"time"

	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
)

// Plan is the registry's aggregate root: metadata about a piece of
// off-system content, identified by the contributor-chosen ID and
// deduplicated by ContentHash.
//
// Invariants:
//   - ID and ContentHash are unique across the registry
//   - PurchaseCount never decreases
//   - Tier changes only through Retier or purchase promotion
//   - CreatedAt is immutable after construction
type Plan struct {
	ID             id.PlanID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ContentHash    id.ContentHash `json:"content_hash"`
	ContentLocator string         `json:"content_locator"`
	Tags           []string       `json:"tags"`
	Domain         string         `json:"domain"`
	Language       string         `json:"language"`
	Framework      string         `json:"framework"`
	Contributor    id.AccountID   `json:"contributor"`
	QualityScore   uint32         `json:"quality_score"`
	PurchaseCount  uint32         `json:"purchase_count"`
	Tier           id.Tier        `json:"tier"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PublishInput carries the contributor-supplied fields of a new plan.
type PublishInput struct {
	ID             id.PlanID
	Title          string
	Description    string
	ContentHash    id.ContentHash
	ContentLocator string
	Tags           []string
	Domain         string
	Language       string
	Framework      string
	QualityScore   uint32
}

// Validate checks what the field types cannot. Text fields and tags are
// stored exactly as given, blanks included.
func (in *PublishInput) Validate() error {
	if in.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "plan id is required")
	}
	return nil
}

// NewPlan builds a freshly published plan: Hot, never purchased.
func NewPlan(contributor id.AccountID, in PublishInput, now time.Time) *Plan {
	tags := make([]string, len(in.Tags))
	copy(tags, in.Tags)
	return &Plan{
		ID:             in.ID,
		Title:          in.Title,
		Description:    in.Description,
		ContentHash:    in.ContentHash,
		ContentLocator: in.ContentLocator,
		Tags:           tags,
		Domain:         in.Domain,
		Language:       in.Language,
		Framework:      in.Framework,
		Contributor:    contributor,
		QualityScore:   in.QualityScore,
		PurchaseCount:  0,
		Tier:           id.TierHot,
		CreatedAt:      now,
	}
}

// CanRetier reports whether caller may change the plan's tier.
func (p *Plan) CanRetier(caller, admin id.AccountID) error {
	if caller != p.Contributor && caller != admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the contributor or the admin may retier a plan")
	}
	return nil
}

// ApplyTier sets the tier and returns the previous one.
func (p *Plan) ApplyTier(tier id.Tier) id.Tier {
	old := p.Tier
	p.Tier = tier
	return old
}

// RecordPurchase counts a sale and promotes the plan to Hot.
func (p *Plan) RecordPurchase() {
	p.PurchaseCount++
	p.Tier = id.TierHot
}

// Clone returns a deep copy so callers cannot alias stored state.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}
