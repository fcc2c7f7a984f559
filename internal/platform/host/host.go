// Package host supplies the environment facts every mutation reads: the
// current time and a monotonic sequence number for ordering purchases.
package host

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	txcontext "synapse/pkg/platform/tx"
	"synapse/pkg/requestcontext"
)

// Memory hands out sequence numbers from a process-local counter.
// Numbers are never reused even if the surrounding transaction rolls back.
type Memory struct {
	seq atomic.Uint64
}

func NewMemory() *Memory {
	return &Memory{}
}

// Now returns the request-scoped time, falling back to the wall clock.
func (m *Memory) Now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}

func (m *Memory) Sequence(_ context.Context) (uint64, error) {
	return m.seq.Add(1), nil
}

// Postgres draws sequence numbers from the host_sequence database sequence
// so that every replica agrees on purchase order.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}

func (p *Postgres) Sequence(ctx context.Context) (uint64, error) {
	var row *sql.Row
	if tx, ok := txcontext.From(ctx); ok {
		row = tx.QueryRowContext(ctx, `SELECT nextval('host_sequence')`)
	} else {
		row = p.db.QueryRowContext(ctx, `SELECT nextval('host_sequence')`)
	}
	var next int64
	if err := row.Scan(&next); err != nil {
		return 0, fmt.Errorf("next host sequence: %w", err)
	}
	return uint64(next), nil
}
