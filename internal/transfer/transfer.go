// Package transfer moves an asset between accounts. The marketplace only ever
// asks for buyer-to-payee movements during a purchase; settlement protocol
// details belong to whatever book backs the Transferrer.
package transfer

import (
	"context"

	"github.com/filecoin-project/go-state-types/big"

	id "synapse/pkg/domain"
	dErrors "synapse/pkg/domain-errors"
)

// Transferrer debits from and credits to by amount of asset.
// Implementations must take part in the transaction carried by ctx.
type Transferrer interface {
	Transfer(ctx context.Context, asset id.AssetRef, from, to id.AccountID, amount big.Int) error
}

func validate(asset id.AssetRef, from, to id.AccountID, amount big.Int) error {
	if asset.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "asset is required")
	}
	if from.IsNil() || to.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "transfer parties are required")
	}
	if amount.Nil() || amount.Sign() < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "transfer amount must not be negative")
	}
	return nil
}
