package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PassLocker implements usecase.PassLocker using Redis SETNX. The TTL
// is the recovery path for a crashed pass; Release is the normal one.
type PassLocker struct {
	client *redis.Client
	prefix string
}

// NewPassLocker creates a new PassLocker.
func NewPassLocker(client *redis.Client) *PassLocker {
	return &PassLocker{
		client: client,
		prefix: "passlock:",
	}
}

// Acquire takes the user's pass lock. Returns false when a pass is
// already running.
func (l *PassLocker) Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+userID, "running", ttl).Result()
}

// Release frees the user's pass lock.
func (l *PassLocker) Release(ctx context.Context, userID string) error {
	return l.client.Del(ctx, l.prefix+userID).Err()
}
