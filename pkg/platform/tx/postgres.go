package tx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	dErrors "synapse/pkg/domain-errors"
)

// serializationFailure is the SQLSTATE Postgres raises when a serializable
// transaction loses a conflict.
const serializationFailure = "40001"

const defaultMaxAttempts = 3

// PostgresRunner runs fn inside a SERIALIZABLE transaction. Stores pick the
// *sql.Tx up from the context via From.
type PostgresRunner struct {
	db          *sql.DB
	timeout     time.Duration
	maxAttempts int
}

func NewPostgresRunner(db *sql.DB) *PostgresRunner {
	return &PostgresRunner{db: db, timeout: defaultTxTimeout, maxAttempts: defaultMaxAttempts}
}

func (r *PostgresRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return dErrors.Wrap(err, dErrors.CodeConflict, "transaction conflicted with a concurrent update")
}

func (r *PostgresRunner) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	txCtx, j := withJournal(WithTx(ctx, sqlTx))
	if err := fn(txCtx); err != nil {
		j.rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		j.rollback()
		return err
	}
	j.commit(context.WithoutCancel(ctx))
	return nil
}

// View runs fn on the pool. Statements outside a transaction only read
// committed rows.
func (r *PostgresRunner) View(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == serializationFailure
	}
	return false
}
