package transfer

import (
	"context"
	"fmt"
	"sync"

	"github.com/filecoin-project/go-state-types/big"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
)

type balanceKey struct {
	asset   id.AssetRef
	account id.AccountID
}

// InMemoryBook keeps balances in a map. Writes made inside a transaction are
// undone if the transaction fails.
type InMemoryBook struct {
	mu       sync.RWMutex
	balances map[balanceKey]big.Int
}

func NewInMemoryBook() *InMemoryBook {
	return &InMemoryBook{balances: make(map[balanceKey]big.Int)}
}

// Mint credits amount to account out of thin air. Used to fund buyers in
// local deployments and tests.
func (b *InMemoryBook) Mint(ctx context.Context, asset id.AssetRef, account id.AccountID, amount big.Int) error {
	if amount.Nil() || amount.Sign() < 0 {
		return fmt.Errorf("mint %s: negative amount", asset)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(ctx, balanceKey{asset, account}, amount)
	return nil
}

// Balance returns the current balance, zero for unknown accounts.
func (b *InMemoryBook) Balance(_ context.Context, asset id.AssetRef, account id.AccountID) (big.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bal, ok := b.balances[balanceKey{asset, account}]; ok {
		return bal, nil
	}
	return big.Zero(), nil
}

func (b *InMemoryBook) Transfer(ctx context.Context, asset id.AssetRef, from, to id.AccountID, amount big.Int) error {
	if err := validate(asset, from, to, amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := balanceKey{asset, from}
	have, ok := b.balances[fromKey]
	if !ok {
		have = big.Zero()
	}
	if have.LessThan(amount) {
		return fmt.Errorf("debit %s from %s: %w", amount, from, sentinel.ErrInsufficientFunds)
	}
	b.credit(ctx, fromKey, big.Sub(big.Zero(), amount))
	b.credit(ctx, balanceKey{asset, to}, amount)
	return nil
}

// credit adds delta to key. Caller holds b.mu.
func (b *InMemoryBook) credit(ctx context.Context, key balanceKey, delta big.Int) {
	prev, existed := b.balances[key]
	if existed {
		b.balances[key] = big.Add(prev, delta)
	} else {
		b.balances[key] = big.Add(big.Zero(), delta)
	}
	txcontext.OnRollback(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existed {
			b.balances[key] = prev
		} else {
			delete(b.balances, key)
		}
	})
}
