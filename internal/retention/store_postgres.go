package retention

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txcontext "synapse/pkg/platform/tx"
)

// PostgresStore keeps expiries in the retention table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) ExtendTo(ctx context.Context, key string, candidate time.Time) (time.Time, error) {
	var expires time.Time
	err := s.querier(ctx).QueryRowContext(ctx, `
		INSERT INTO retention (key, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET expires_at = GREATEST(retention.expires_at, EXCLUDED.expires_at)
		RETURNING expires_at
	`, key, candidate.UTC()).Scan(&expires)
	if err != nil {
		return time.Time{}, fmt.Errorf("extend retention: %w", err)
	}
	return expires.UTC(), nil
}

func (s *PostgresStore) ExpiresAt(ctx context.Context, key string) (time.Time, bool, error) {
	var expires time.Time
	err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT expires_at FROM retention WHERE key = $1`, key,
	).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read retention: %w", err)
	}
	return expires.UTC(), true, nil
}
