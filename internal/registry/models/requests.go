package models

import (
	"time"

	id "synapse/pkg/domain"
)

// PublishRequest is the body of POST /plans. Contributor defaults to the
// authenticated caller.
type PublishRequest struct {
	ID             string   `json:"id"`
	Contributor    string   `json:"contributor"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ContentHash    string   `json:"content_hash"`
	ContentLocator string   `json:"content_locator"`
	Tags           []string `json:"tags"`
	Domain         string   `json:"domain"`
	Language       string   `json:"language"`
	Framework      string   `json:"framework"`
	QualityScore   uint32   `json:"quality_score"`
}

// RetierRequest is the body of PUT /plans/{planID}/tier.
type RetierRequest struct {
	Tier string `json:"tier"`
}

// PlanIDsResponse lists plan identifiers in insertion order.
type PlanIDsResponse struct {
	Account id.AccountID `json:"account"`
	PlanIDs []id.PlanID  `json:"plan_ids"`
}

// ContentExistsResponse answers GET /content/{hash}.
type ContentExistsResponse struct {
	ContentHash id.ContentHash `json:"content_hash"`
	Exists      bool           `json:"exists"`
}

// RetentionResponse reports the keep-alive horizon after an extension.
type RetentionResponse struct {
	PlanID    id.PlanID `json:"plan_id"`
	Tier      id.Tier   `json:"tier"`
	ExpiresAt time.Time `json:"expires_at"`
}
