package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "synapse/pkg/domain"
	"synapse/pkg/platform/events"
	txcontext "synapse/pkg/platform/tx"
)

// Store implements events.Store using the transactional outbox pattern.
// Events are written to the outbox table in the caller's transaction and
// published to Kafka by the relay.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event events.Event) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		"plan",
		event.PlanID.String(),
		string(event.Type),
		[]byte(event.Payload),
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Pending returns up to limit unpublished rows in insertion order.
func (s *Store) Pending(ctx context.Context, limit int) ([]events.Event, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, request_id, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, eventID := range ids {
		raw[i] = eventID.String()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])`,
		pq.Array(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// ListByPlan returns every event recorded for a plan, oldest first.
func (s *Store) ListByPlan(ctx context.Context, planID id.PlanID) ([]events.Event, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, request_id, created_at
		FROM outbox
		WHERE aggregate_type = 'plan' AND aggregate_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, planID.String())
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	var out []events.Event
	for rows.Next() {
		var (
			event     events.Event
			planID    string
			eventType string
			payload   []byte
		)
		if err := rows.Scan(&event.ID, &planID, &eventType, &payload, &event.RequestID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		parsed, err := id.ParsePlanID(planID)
		if err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		event.PlanID = parsed
		event.Type = events.Type(eventType)
		event.Payload = payload
		event.Timestamp = event.Timestamp.UTC()
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}
