package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/filecoin-project/go-state-types/big"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
)

// PostgresBook keeps balances in the balances table. Amounts are stored as
// NUMERIC and carried as decimal strings.
type PostgresBook struct {
	db *sql.DB
}

func NewPostgresBook(db *sql.DB) *PostgresBook {
	return &PostgresBook{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *PostgresBook) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return b.db
}

func (b *PostgresBook) Mint(ctx context.Context, asset id.AssetRef, account id.AccountID, amount big.Int) error {
	if amount.Nil() || amount.Sign() < 0 {
		return fmt.Errorf("mint %s: negative amount", asset)
	}
	return b.credit(ctx, asset, account, amount)
}

func (b *PostgresBook) Balance(ctx context.Context, asset id.AssetRef, account id.AccountID) (big.Int, error) {
	var raw string
	err := b.execer(ctx).QueryRowContext(ctx,
		`SELECT amount::text FROM balances WHERE asset = $1 AND account = $2`,
		string(asset), string(account),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return big.Zero(), nil
	}
	if err != nil {
		return big.Int{}, fmt.Errorf("read balance: %w", err)
	}
	return big.FromString(raw)
}

func (b *PostgresBook) Transfer(ctx context.Context, asset id.AssetRef, from, to id.AccountID, amount big.Int) error {
	if err := validate(asset, from, to, amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	var raw string
	err := b.execer(ctx).QueryRowContext(ctx,
		`SELECT amount::text FROM balances WHERE asset = $1 AND account = $2 FOR UPDATE`,
		string(asset), string(from),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("debit %s from %s: %w", amount, from, sentinel.ErrInsufficientFunds)
	}
	if err != nil {
		return fmt.Errorf("lock payer balance: %w", err)
	}
	have, err := big.FromString(raw)
	if err != nil {
		return fmt.Errorf("parse payer balance: %w", err)
	}
	if have.LessThan(amount) {
		return fmt.Errorf("debit %s from %s: %w", amount, from, sentinel.ErrInsufficientFunds)
	}

	if _, err := b.execer(ctx).ExecContext(ctx,
		`UPDATE balances SET amount = amount - $3::numeric WHERE asset = $1 AND account = $2`,
		string(asset), string(from), amount.String(),
	); err != nil {
		return fmt.Errorf("debit payer: %w", err)
	}
	return b.credit(ctx, asset, to, amount)
}

func (b *PostgresBook) credit(ctx context.Context, asset id.AssetRef, account id.AccountID, amount big.Int) error {
	_, err := b.execer(ctx).ExecContext(ctx, `
		INSERT INTO balances (asset, account, amount)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (asset, account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, string(asset), string(account), amount.String())
	if err != nil {
		return fmt.Errorf("credit payee: %w", err)
	}
	return nil
}
