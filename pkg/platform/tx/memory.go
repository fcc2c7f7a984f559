package tx

import (
	"context"
	"sync"
	"time"

	dErrors "synapse/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for a transaction.
const defaultTxTimeout = 5 * time.Second

// MemoryRunner serializes transactions behind one lock and replays the
// journal of compensations when fn fails, giving in-memory stores the same
// all-or-nothing behavior as a database transaction. In-memory stores write
// in place, so reads go through View to stay out of a running transaction.
type MemoryRunner struct {
	mu      sync.RWMutex
	timeout time.Duration
}

type heldKey struct{}

// withHeld marks ctx as running while the write lock is held, so commit
// hooks can read without re-acquiring it.
func withHeld(ctx context.Context) context.Context {
	return context.WithValue(ctx, heldKey{}, true)
}

func held(ctx context.Context) bool {
	v, _ := ctx.Value(heldKey{}).(bool)
	return v
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{timeout: defaultTxTimeout}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	// Nested calls join the outer transaction.
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

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	txCtx, j := withJournal(ctx)
	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		j.rollback()
		return err
	}
	j.commit(withHeld(context.WithoutCancel(ctx)))
	return nil
}

// View runs fn under the read lock, so it waits for any running transaction
// to commit or roll back. Inside a transaction or a commit hook it runs
// directly.
func (r *MemoryRunner) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) || held(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(ctx)
}
