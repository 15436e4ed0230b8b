package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/splitsync/internal/domain"
)

// RateLimitRepository implements the atomic fixed-window admission
// check. The whole check is one upsert: expired windows reset, live
// windows increment, and the guarded WHERE clause makes a full window
// produce zero rows. Concurrent hits serialize on the row lock, so the
// counter can never overshoot.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RateLimitRepository struct {
	pool    rowQuerier
	retrier *Retrier
}

// NewRateLimitRepository creates a new rate limit repository.
func NewRateLimitRepository(pool *pgxpool.Pool) *RateLimitRepository {
	return newRateLimitRepositoryWithPool(pool)
}

func newRateLimitRepositoryWithPool(pool rowQuerier) *RateLimitRepository {
	return &RateLimitRepository{pool: pool, retrier: NewRetrier()}
}

const hitQuery = `
	INSERT INTO rate_limit_counters (user_id, key, window_start, count)
	VALUES ($1, $2, $3, 1)
	ON CONFLICT (user_id, key) DO UPDATE SET
		count = CASE
			WHEN rate_limit_counters.window_start <= $4 THEN 1
			ELSE rate_limit_counters.count + 1
		END,
		window_start = CASE
			WHEN rate_limit_counters.window_start <= $4 THEN $3
			ELSE rate_limit_counters.window_start
		END
	WHERE rate_limit_counters.window_start <= $4
	   OR rate_limit_counters.count < $5
	RETURNING window_start, count
`

// Hit admits or denies one hit against the window. Denial is reported
// through the allowed flag, never as an error.
func (r *RateLimitRepository) Hit(ctx context.Context, userID, key string, max int64, window time.Duration, now time.Time) (bool, *domain.RateLimitCounter, error) {
	cutoff := now.Add(-window)
	counter := &domain.RateLimitCounter{UserID: userID, Key: key}

	var admitErr error
	err := r.retrier.Retry(ctx, func() error {
		admitErr = r.pool.QueryRow(ctx, hitQuery, userID, key, now, cutoff, max).Scan(
			&counter.WindowStart,
			&counter.Count,
		)
		if errors.Is(admitErr, pgx.ErrNoRows) {
			return nil
		}
		return admitErr
	})
	if err != nil {
		return false, nil, err
	}

	if errors.Is(admitErr, pgx.ErrNoRows) {
		// Denied. Read the untouched window so the caller can compute
		// a retry time.
		denied, err := r.read(ctx, userID, key)
		if err != nil {
			return false, nil, err
		}
		return false, denied, nil
	}

	return true, counter, nil
}

func (r *RateLimitRepository) read(ctx context.Context, userID, key string) (*domain.RateLimitCounter, error) {
	query := `
		SELECT user_id, key, window_start, count
		FROM rate_limit_counters
		WHERE user_id = $1 AND key = $2
	`

	var counter domain.RateLimitCounter
	err := r.pool.QueryRow(ctx, query, userID, key).Scan(
		&counter.UserID,
		&counter.Key,
		&counter.WindowStart,
		&counter.Count,
	)
	if err != nil {
		return nil, err
	}

	return &counter, nil
}
