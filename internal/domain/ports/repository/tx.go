package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Repositories that receive a non-nil tx run their statements on it, which is
// how SELECT ... FOR UPDATE and guarded writes from one use case end up in the
// same unit of work. The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
// Repositories MUST gracefully accept a nil tx (non-transactional path).
//
// If fn returns an error the transaction is rolled back and the error is
// returned unchanged, unless the store itself aborted the transaction; those
// aborts are reported as domain.ErrTxConflict.
//
// Implementations pass fn a context prepared with WithCommitHooks and run the
// hooks only after a successful commit.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks returns a context that collects AfterCommit callbacks and
// the function that runs them. Call run only once the transaction committed.
func WithCommitHooks(ctx context.Context) (hctx context.Context, run func(ctx context.Context)) {
	h := &commitHooks{}
	run = func(ctx context.Context) {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn(ctx)
		}
	}
	return context.WithValue(ctx, commitHooksKey{}, h), run
}

// AfterCommit defers fn until the transaction carried by ctx commits. It
// reports false when ctx has no transaction hooks; fn is not queued then.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) bool {
	h, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		return false
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
	return true
}
