package tx

import (
	"context"
	"sync"
)

type journalKey struct{}

// journal collects compensations and post-commit hooks for one transaction.
type journal struct {
	mu    sync.Mutex
	undo  []func()
	after []func(context.Context)
}

func withJournal(ctx context.Context) (context.Context, *journal) {
	j := &journal{}
	return context.WithValue(ctx, journalKey{}, j), j
}

func journalFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	return j, ok
}

// InTx reports whether ctx is inside a RunInTx call.
func InTx(ctx context.Context) bool {
	_, ok := journalFrom(ctx)
	return ok
}

// OnRollback registers a compensation that restores state written by an
// in-memory store. Compensations run in reverse order if the transaction
// fails. Outside a transaction the call is a no-op.
func OnRollback(ctx context.Context, undo func()) {
	j, ok := journalFrom(ctx)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

// AfterCommit defers fn until the surrounding transaction commits. Outside a
// transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	j, ok := journalFrom(ctx)
	if !ok {
		fn(ctx)
		return
	}
	j.mu.Lock()
	j.after = append(j.after, fn)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	undo := j.undo
	j.undo = nil
	j.after = nil
	j.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

func (j *journal) commit(ctx context.Context) {
	j.mu.Lock()
	after := j.after
	j.undo = nil
	j.after = nil
	j.mu.Unlock()
	for _, fn := range after {
		fn(ctx)
	}
}
