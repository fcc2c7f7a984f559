package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"synapse/internal/settings/models"
	id "synapse/pkg/domain"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// PostgresStore keeps the configuration in the single-row marketplace_config table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Load(ctx context.Context) (*models.Configuration, error) {
	var (
		cfg      models.Configuration
		admin    string
		operator string
		asset    string
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT admin, operator, contributor_share_pct, payment_asset
		FROM marketplace_config WHERE id = 1
	`).Scan(&admin, &operator, &cfg.ContributorSharePct, &asset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load marketplace config: %w", err)
	}
	cfg.Admin = id.AccountID(admin)
	cfg.Operator = id.AccountID(operator)
	cfg.PaymentAsset = id.AssetRef(asset)
	return &cfg, nil
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, cfg *models.Configuration) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO marketplace_config (id, admin, operator, contributor_share_pct, payment_asset, total_plans, total_purchases)
		VALUES (1, $1, $2, $3, $4, 0, 0)
	`, string(cfg.Admin), string(cfg.Operator), cfg.ContributorSharePct, string(cfg.PaymentAsset))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert marketplace config: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateOperator(ctx context.Context, operator id.AccountID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE marketplace_config SET operator = $1 WHERE id = 1`, string(operator))
	if err != nil {
		return fmt.Errorf("update operator: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT total_plans, total_purchases FROM marketplace_config WHERE id = 1`,
	).Scan(&st.TotalPlans, &st.TotalPurchases)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stats{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) IncrementPlans(ctx context.Context) (uint32, error) {
	return s.increment(ctx, `UPDATE marketplace_config SET total_plans = total_plans + 1 WHERE id = 1 RETURNING total_plans`)
}

func (s *PostgresStore) IncrementPurchases(ctx context.Context) (uint32, error) {
	return s.increment(ctx, `UPDATE marketplace_config SET total_purchases = total_purchases + 1 WHERE id = 1 RETURNING total_purchases`)
}

func (s *PostgresStore) increment(ctx context.Context, query string) (uint32, error) {
	var n uint32
	err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return n, nil
}
