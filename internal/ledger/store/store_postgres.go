package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/google/uuid"

	"synapse/internal/ledger/models"
	id "synapse/pkg/domain"
	txcontext "synapse/pkg/platform/tx"
)

// PostgresStore keeps purchase history in the purchases table. Amounts are
// NUMERIC columns carried as decimal strings.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, planID id.PlanID, record models.PurchaseRecord) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO purchases (plan_id, position, buyer, amount, contributor_share, operator_share, sequence)
		SELECT $1::uuid, COALESCE(MAX(position), 0) + 1, $2::text, $3::numeric, $4::numeric, $5::numeric, $6::bigint
		FROM purchases WHERE plan_id = $1::uuid
	`,
		uuid.UUID(planID), string(record.Buyer),
		record.Amount.String(), record.ContributorShare.String(), record.OperatorShare.String(),
		int64(record.Sequence),
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, planID id.PlanID) ([]models.PurchaseRecord, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT buyer, amount::text, contributor_share::text, operator_share::text, sequence
		FROM purchases WHERE plan_id = $1 ORDER BY position
	`, uuid.UUID(planID))
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	records := []models.PurchaseRecord{}
	for rows.Next() {
		var (
			buyer                       string
			amount, contributor, opShare string
			sequence                    int64
		)
		if err := rows.Scan(&buyer, &amount, &contributor, &opShare, &sequence); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		record := models.PurchaseRecord{Buyer: id.AccountID(buyer), Sequence: uint64(sequence)}
		if record.Amount, err = big.FromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if record.ContributorShare, err = big.FromString(contributor); err != nil {
			return nil, fmt.Errorf("parse contributor share: %w", err)
		}
		if record.OperatorShare, err = big.FromString(opShare); err != nil {
			return nil, fmt.Errorf("parse operator share: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return records, nil
}
