package models

import (
	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
)

// MaxSharePct is the upper bound of ContributorSharePct.
const MaxSharePct = 100

// Configuration is the marketplace singleton, set once at initialization.
//
// Invariants:
//   - ContributorSharePct is within 0..100
//   - Admin never changes after initialization
//   - Operator changes only through an admin-signed SetOperator
type Configuration struct {
	Admin               id.AccountID `json:"admin"`
	Operator            id.AccountID `json:"operator"`
	ContributorSharePct uint32       `json:"contributor_share_pct"`
	PaymentAsset        id.AssetRef  `json:"payment_asset"`
}

// NewConfiguration validates the initialization parameters.
func NewConfiguration(admin, operator id.AccountID, sharePct uint32, asset id.AssetRef) (*Configuration, error) {
	if sharePct > MaxSharePct {
		return nil, dErrors.New(dErrors.CodeInvalidPercentage, "contributor share must be between 0 and 100")
	}
	if admin.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "admin account is required")
	}
	if operator.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "operator account is required")
	}
	if asset.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "payment asset is required")
	}
	return &Configuration{
		Admin:               admin,
		Operator:            operator,
		ContributorSharePct: sharePct,
		PaymentAsset:        asset,
	}, nil
}

// Stats are the global marketplace counters.
type Stats struct {
	TotalPlans     uint32 `json:"total_plans"`
	TotalPurchases uint32 `json:"total_purchases"`
}

// InitializeRequest is the body of POST /admin/initialize.
type InitializeRequest struct {
	Admin               string `json:"admin"`
	Operator            string `json:"operator"`
	ContributorSharePct uint32 `json:"contributor_share_pct"`
	PaymentAsset        string `json:"payment_asset"`
}

// SetOperatorRequest is the body of PUT /admin/operator.
type SetOperatorRequest struct {
	Operator string `json:"operator"`
}
