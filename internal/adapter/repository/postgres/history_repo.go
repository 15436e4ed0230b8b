package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// HistoryRepository implements sync history persistence.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create inserts a new pending pass record.
func (r *HistoryRepository) Create(ctx context.Context, history *domain.SyncHistory) error {
	query := `
		INSERT INTO sync_history (id, user_id, status, started_at, error_message)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		history.ID,
		history.UserID,
		history.Status,
		history.StartedAt,
		history.ErrorMessage,
	)

	return err
}

// Complete transitions a pass to its final status.
func (r *HistoryRepository) Complete(ctx context.Context, history *domain.SyncHistory) error {
	query := `
		UPDATE sync_history
		SET status = $2, completed_at = $3, error_message = $4
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		history.ID,
		history.Status,
		history.CompletedAt,
		history.ErrorMessage,
	)

	return err
}

// AddItem inserts one attempted item inside a transaction, alongside
// the direction's cursor advance.
func (r *HistoryRepository) AddItem(ctx context.Context, tx usecase.Transaction, item *domain.SyncedItem) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		INSERT INTO synced_items (id, sync_history_id, external_id, item_type, amount, description, item_date, direction, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := pgxTx.Exec(ctx, query,
		item.ID,
		item.SyncHistoryID,
		item.ExternalID,
		item.Type,
		item.Amount,
		item.Description,
		item.Date,
		item.Direction,
		item.Status,
		item.ErrorMessage,
	)

	return err
}

// GetByID retrieves one pass with its items.
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*domain.SyncHistory, error) {
	query := `
		SELECT id, user_id, status, started_at, completed_at, error_message
		FROM sync_history
		WHERE id = $1
	`

	var history domain.SyncHistory
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&history.ID,
		&history.UserID,
		&history.Status,
		&history.StartedAt,
		&history.CompletedAt,
		&history.ErrorMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrHistoryNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	history.Items = items

	return &history, nil
}

func (r *HistoryRepository) itemsFor(ctx context.Context, historyID string) ([]*domain.SyncedItem, error) {
	query := `
		SELECT id, sync_history_id, external_id, item_type, amount, description, item_date, direction, status, error_message
		FROM synced_items
		WHERE sync_history_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, historyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.SyncedItem
	for rows.Next() {
		var item domain.SyncedItem
		if err := rows.Scan(
			&item.ID,
			&item.SyncHistoryID,
			&item.ExternalID,
			&item.Type,
			&item.Amount,
			&item.Description,
			&item.Date,
			&item.Direction,
			&item.Status,
			&item.ErrorMessage,
		); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// ListByUser returns the user's passes, newest first, without items.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error) {
	query := `
		SELECT id, user_id, status, started_at, completed_at, error_message
		FROM sync_history
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []*domain.SyncHistory
	for rows.Next() {
		var history domain.SyncHistory
		if err := rows.Scan(
			&history.ID,
			&history.UserID,
			&history.Status,
			&history.StartedAt,
			&history.CompletedAt,
			&history.ErrorMessage,
		); err != nil {
			return nil, err
		}
		histories = append(histories, &history)
	}

	return histories, rows.Err()
}

// HasSuccess reports whether the user has ever completed a successful
// pass.
func (r *HistoryRepository) HasSuccess(ctx context.Context, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sync_history WHERE user_id = $1 AND status = 'success'
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}
