package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// CachedConfigRepository is a read-through cache over a
// ConfigRepository. Batch runs read the same configs the HTTP surface
// just served; a short TTL keeps them off the database without
// tolerating stale disables for long.
type CachedConfigRepository struct {
	inner  usecase.ConfigRepository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCachedConfigRepository creates a new CachedConfigRepository.
func NewCachedConfigRepository(inner usecase.ConfigRepository, client *redis.Client, ttl time.Duration) *CachedConfigRepository {
	return &CachedConfigRepository{
		inner:  inner,
		client: client,
		prefix: "config:",
		ttl:    ttl,
	}
}

// GetByUserID returns the cached config or falls through to the inner
// repository.
func (r *CachedConfigRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
	key := r.prefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var cfg domain.UserSyncConfig
		if err := json.Unmarshal(data, &cfg); err == nil {
			return &cfg, nil
		}
		// Corrupt entry; fall through and overwrite.
	}

	cfg, err := r.inner.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cfg); err == nil {
		// Best-effort: a failed cache write is not a read failure.
		r.client.Set(ctx, key, data, r.ttl)
	}

	return cfg, nil
}

// GetByGroupID is not cached: group lookups only happen on config
// saves.
func (r *CachedConfigRepository) GetByGroupID(ctx context.Context, groupID string) (*domain.UserSyncConfig, error) {
	return r.inner.GetByGroupID(ctx, groupID)
}

// Save writes through and invalidates twice: once immediately, and
// again after the transaction commits. A read between the first
// delete and the commit re-caches the pre-commit row; the after-commit
// delete evicts it.
func (r *CachedConfigRepository) Save(ctx context.Context, tx usecase.Transaction, cfg *domain.UserSyncConfig) error {
	if err := r.inner.Save(ctx, tx, cfg); err != nil {
		return err
	}
	r.invalidate(ctx, cfg.UserID)
	userID := cfg.UserID
	tx.AfterCommit(func(ctx context.Context) {
		r.invalidate(ctx, userID)
	})
	return nil
}

// Update writes through and invalidates.
func (r *CachedConfigRepository) Update(ctx context.Context, cfg *domain.UserSyncConfig) error {
	if err := r.inner.Update(ctx, cfg); err != nil {
		return err
	}
	r.invalidate(ctx, cfg.UserID)
	return nil
}

// ListEligible always reads the database: the batch must see fresh
// eligibility.
func (r *CachedConfigRepository) ListEligible(ctx context.Context) ([]*domain.UserSyncConfig, error) {
	return r.inner.ListEligible(ctx)
}

// SaveLedgerTokens writes through and invalidates.
func (r *CachedConfigRepository) SaveLedgerTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	if err := r.inner.SaveLedgerTokens(ctx, userID, accessToken, refreshToken); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *CachedConfigRepository) invalidate(ctx context.Context, userID string) {
	r.client.Del(ctx, r.prefix+userID)
}
