package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// CursorRepository implements cursor persistence. Both watermarks are
// monotonic non-decreasing; regressions are absorbed by GREATEST in
// the update statements rather than checked in Go, so concurrent
// writers cannot move a cursor backwards.
type CursorRepository struct {
	pool *pgxpool.Pool
}

// NewCursorRepository creates a new cursor repository.
func NewCursorRepository(pool *pgxpool.Pool) *CursorRepository {
	return &CursorRepository{pool: pool}
}

// Get returns the user's cursor, creating a zero cursor on first use.
func (r *CursorRepository) Get(ctx context.Context, userID string) (*domain.SyncCursor, error) {
	query := `
		INSERT INTO sync_cursors (user_id, ledger_server_knowledge, split_updated_after, updated_at)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, ledger_server_knowledge, split_updated_after, updated_at
	`

	var cursor domain.SyncCursor
	err := r.pool.QueryRow(ctx, query, userID, domain.SplitEpoch, time.Now().UTC()).Scan(
		&cursor.UserID,
		&cursor.LedgerServerKnowledge,
		&cursor.SplitUpdatedAfter,
		&cursor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &cursor, nil
}

// SaveLedger advances the ledger server-knowledge watermark.
func (r *CursorRepository) SaveLedger(ctx context.Context, tx usecase.Transaction, userID string, serverKnowledge int64) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		UPDATE sync_cursors
		SET ledger_server_knowledge = GREATEST(ledger_server_knowledge, $2),
		    updated_at = $3
		WHERE user_id = $1
	`

	_, err := pgxTx.Exec(ctx, query, userID, serverKnowledge, time.Now().UTC())
	return err
}

// SaveSplit advances the split updated-after watermark.
func (r *CursorRepository) SaveSplit(ctx context.Context, tx usecase.Transaction, userID string, updatedAfter time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		UPDATE sync_cursors
		SET split_updated_after = GREATEST(split_updated_after, $2),
		    updated_at = $3
		WHERE user_id = $1
	`

	_, err := pgxTx.Exec(ctx, query, userID, updatedAfter, time.Now().UTC())
	return err
}
