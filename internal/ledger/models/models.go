package models

import (
	"strings"

	"github.com/filecoin-project/go-state-types/big"

	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
)

// PurchaseRecord is the immutable receipt of one settled purchase.
//
// Invariants:
//   - ContributorShare + OperatorShare == Amount
//   - Sequence is the host sequence captured when the purchase settled
type PurchaseRecord struct {
	Buyer            id.AccountID `json:"buyer"`
	Amount           big.Int      `json:"amount"`
	ContributorShare big.Int      `json:"contributor_share"`
	OperatorShare    big.Int      `json:"operator_share"`
	Sequence         uint64       `json:"sequence"`
}

// Split divides amount between contributor and operator. The contributor
// receives floor(amount * pct / 100); the operator receives the remainder so
// the two shares always sum to amount.
func Split(amount big.Int, pct uint32) (contributorShare, operatorShare big.Int) {
	contributorShare = big.Div(big.Mul(amount, big.NewIntUnsigned(uint64(pct))), big.NewInt(100))
	operatorShare = big.Sub(amount, contributorShare)
	return contributorShare, operatorShare
}

// ValidateAmount rejects nil, zero and negative amounts.
func ValidateAmount(amount big.Int) error {
	if amount.Nil() || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be greater than zero")
	}
	if amount.GreaterThan(MaxAmount) {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount exceeds 2^127-1")
	}
	return nil
}

// MaxAmount is the largest signed 128-bit amount, 2^127-1.
var MaxAmount = mustAmount("170141183460469231731687303715884105727")

func mustAmount(s string) big.Int {
	v, err := big.FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// PurchaseRequest is the body of POST /plans/{planID}/purchases. Buyer
// defaults to the authenticated caller. Amount is a decimal string in the
// payment asset's smallest unit.
type PurchaseRequest struct {
	Buyer  string `json:"buyer"`
	Amount string `json:"amount"`
}

// ParseAmount reads a base-10 integer amount.
func ParseAmount(s string) (big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.Int{}, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	amount, err := big.FromString(s)
	if err != nil {
		return big.Int{}, dErrors.New(dErrors.CodeInvalidAmount, "amount must be a base-10 integer")
	}
	return amount, nil
}

// PurchasesResponse lists a plan's purchase history in settlement order.
type PurchasesResponse struct {
	PlanID    id.PlanID        `json:"plan_id"`
	Purchases []PurchaseRecord `json:"purchases"`
}
