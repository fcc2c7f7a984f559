package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"synapse/internal/registry/models"
	id "synapse/pkg/domain"
	"synapse/pkg/platform/sentinel"
	txcontext "synapse/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists plans and both indexes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const planColumns = `id, title, description, content_hash, content_locator, tags, domain,
	language, framework, contributor, quality_score, purchase_count, tier, created_at`

func (s *PostgresStore) Create(ctx context.Context, plan *models.Plan) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		uuid.UUID(plan.ID), plan.Title, plan.Description, plan.ContentHash[:], plan.ContentLocator,
		pq.Array(plan.Tags), plan.Domain, plan.Language, plan.Framework, string(plan.Contributor),
		int64(plan.QualityScore), int64(plan.PurchaseCount), string(plan.Tier), plan.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, uuid.UUID(planID))
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return plan, nil
}

// Save writes the mutable fields of an existing plan.
func (s *PostgresStore) Save(ctx context.Context, plan *models.Plan) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE plans SET purchase_count = $2, tier = $3
		WHERE id = $1
	`, uuid.UUID(plan.ID), int64(plan.PurchaseCount), string(plan.Tier))
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IndexContent(ctx context.Context, hash id.ContentHash, planID id.PlanID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO content_index (content_hash, plan_id) VALUES ($1, $2)`,
		hash[:], uuid.UUID(planID))
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("index content: %w", err)
	}
	return nil
}

func (s *PostgresStore) ContentExists(ctx context.Context, hash id.ContentHash) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_index WHERE content_hash = $1)`, hash[:],
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check content: %w", err)
	}
	return exists, nil
}

// AppendContributorPlan assigns the next position in the contributor's list.
// Concurrent appends for one contributor are serialized by the transaction.
func (s *PostgresStore) AppendContributorPlan(ctx context.Context, contributor id.AccountID, planID id.PlanID) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO contributor_plans (contributor, position, plan_id)
		SELECT $1::text, COALESCE(MAX(position), 0) + 1, $2::uuid
		FROM contributor_plans WHERE contributor = $1
	`, string(contributor), uuid.UUID(planID))
	if err != nil {
		return fmt.Errorf("append contributor plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) ContributorPlans(ctx context.Context, contributor id.AccountID) ([]id.PlanID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT plan_id FROM contributor_plans WHERE contributor = $1 ORDER BY position`,
		string(contributor))
	if err != nil {
		return nil, fmt.Errorf("list contributor plans: %w", err)
	}
	defer rows.Close()

	ids := []id.PlanID{}
	for rows.Next() {
		var planID uuid.UUID
		if err := rows.Scan(&planID); err != nil {
			return nil, fmt.Errorf("scan contributor plan: %w", err)
		}
		ids = append(ids, id.PlanID(planID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributor plans: %w", err)
	}
	return ids, nil
}

func scanPlan(row *sql.Row) (*models.Plan, error) {
	var (
		plan          models.Plan
		planID        uuid.UUID
		hash          []byte
		tags          []string
		contributor   string
		quality       int64
		purchaseCount int64
		tier          string
	)
	err := row.Scan(&planID, &plan.Title, &plan.Description, &hash, &plan.ContentLocator,
		pq.Array(&tags), &plan.Domain, &plan.Language, &plan.Framework, &contributor,
		&quality, &purchaseCount, &tier, &plan.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(hash) != id.ContentHashSize {
		return nil, fmt.Errorf("content hash has %d bytes", len(hash))
	}
	plan.ID = id.PlanID(planID)
	copy(plan.ContentHash[:], hash)
	if tags == nil {
		tags = []string{}
	}
	plan.Tags = tags
	plan.Contributor = id.AccountID(contributor)
	plan.QualityScore = uint32(quality)
	plan.PurchaseCount = uint32(purchaseCount)
	plan.Tier = id.Tier(tier)
	plan.CreatedAt = plan.CreatedAt.UTC()
	return &plan, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
