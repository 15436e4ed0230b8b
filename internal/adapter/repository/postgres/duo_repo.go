package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// DuoRepository implements duo link and invite persistence.
type DuoRepository struct {
	pool *pgxpool.Pool
}

// NewDuoRepository creates a new duo repository.
func NewDuoRepository(pool *pgxpool.Pool) *DuoRepository {
	return &DuoRepository{pool: pool}
}

// GetLinkByUser returns the link the user participates in, or
// (nil, nil) when solo.
func (r *DuoRepository) GetLinkByUser(ctx context.Context, userID string) (*domain.DuoLink, error) {
	query := `
		SELECT primary_user_id, secondary_user_id, linked_at
		FROM duo_links
		WHERE primary_user_id = $1 OR secondary_user_id = $1
	`

	var link domain.DuoLink
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&link.PrimaryUserID,
		&link.SecondaryUserID,
		&link.LinkedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &link, nil
}

// CreateLink inserts a link inside a transaction, alongside the
// secondary's field adoption.
func (r *DuoRepository) CreateLink(ctx context.Context, tx usecase.Transaction, link *domain.DuoLink) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		INSERT INTO duo_links (primary_user_id, secondary_user_id, linked_at)
		VALUES ($1, $2, $3)
	`

	_, err := pgxTx.Exec(ctx, query, link.PrimaryUserID, link.SecondaryUserID, link.LinkedAt)
	return err
}

// DeleteLink removes a link inside a transaction.
func (r *DuoRepository) DeleteLink(ctx context.Context, tx usecase.Transaction, link *domain.DuoLink) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		DELETE FROM duo_links
		WHERE primary_user_id = $1 AND secondary_user_id = $2
	`

	_, err := pgxTx.Exec(ctx, query, link.PrimaryUserID, link.SecondaryUserID)
	return err
}

// CreateInvite inserts a new pending invite.
func (r *DuoRepository) CreateInvite(ctx context.Context, invite *domain.DuoInvite) error {
	query := `
		INSERT INTO duo_invites (id, primary_user_id, code, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		invite.ID,
		invite.PrimaryUserID,
		invite.Code,
		invite.Status,
		invite.CreatedAt,
		invite.ExpiresAt,
	)

	return err
}

// GetInviteByCode returns the invite with the given code, or
// (nil, nil) when unknown.
func (r *DuoRepository) GetInviteByCode(ctx context.Context, code string) (*domain.DuoInvite, error) {
	query := `
		SELECT id, primary_user_id, code, status, created_at, expires_at
		FROM duo_invites
		WHERE code = $1
	`

	var invite domain.DuoInvite
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&invite.ID,
		&invite.PrimaryUserID,
		&invite.Code,
		&invite.Status,
		&invite.CreatedAt,
		&invite.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &invite, nil
}

// MarkInviteAccepted transitions an invite to accepted inside the
// linking transaction.
func (r *DuoRepository) MarkInviteAccepted(ctx context.Context, tx usecase.Transaction, inviteID string) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `UPDATE duo_invites SET status = 'accepted' WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, inviteID)
	return err
}

// ExpireInvites expires every pending invite of a primary, inside the
// unlink transaction.
func (r *DuoRepository) ExpireInvites(ctx context.Context, tx usecase.Transaction, primaryUserID string) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		UPDATE duo_invites
		SET status = 'expired'
		WHERE primary_user_id = $1 AND status = 'pending'
	`

	_, err := pgxTx.Exec(ctx, query, primaryUserID)
	return err
}

// HasOpenInvite reports whether the primary has an unexpired pending
// invite.
func (r *DuoRepository) HasOpenInvite(ctx context.Context, primaryUserID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM duo_invites
			WHERE primary_user_id = $1 AND status = 'pending' AND expires_at > $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, primaryUserID, time.Now().UTC()).Scan(&exists)
	return exists, err
}
