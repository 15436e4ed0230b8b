package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager. Config saves with
// partner propagation and linking ceremonies ride a single
// transaction through it, so both sides land or neither does.
type TxManager struct {
	pool pgxPool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool pgxPool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction behind usecase.Transaction.
type Tx struct {
	tx    pgx.Tx
	hooks []func(ctx context.Context)
}

// Commit commits the transaction and then runs the registered
// after-commit hooks in order.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return err
	}
	for _, fn := range t.hooks {
		fn(ctx)
	}
	return nil
}

// Rollback rolls back the transaction. After-commit hooks are
// discarded.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// AfterCommit registers fn to run once the transaction commits.
func (t *Tx) AfterCommit(fn func(ctx context.Context)) {
	t.hooks = append(t.hooks, fn)
}

// PgxTx exposes the underlying pgx.Tx to repositories that execute
// statements inside the transaction.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
