package redis

import (
	"context"
	"testing"
	"time"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase/mocks"
)

func TestCachedConfigRepositoryReadThrough(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := mocks.NewMockConfigRepository()

	reads := 0
	inner.GetByUserIDFunc = func(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
		reads++
		return &domain.UserSyncConfig{UserID: userID, SyncMarker: "[synced]"}, nil
	}

	repo := NewCachedConfigRepository(inner, client, time.Minute)
	ctx := context.Background()

	cfg, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg.SyncMarker != "[synced]" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	// Second read is served from the cache.
	if _, err := repo.GetByUserID(ctx, "user-1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reads != 1 {
		t.Errorf("expected 1 database read, got %d", reads)
	}
}

func TestCachedConfigRepositoryInvalidatesOnUpdate(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := mocks.NewMockConfigRepository()
	inner.Seed(&domain.UserSyncConfig{UserID: "user-1", SyncMarker: "[old]"})

	repo := NewCachedConfigRepository(inner, client, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetByUserID(ctx, "user-1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if err := repo.Update(ctx, &domain.UserSyncConfig{UserID: "user-1", SyncMarker: "[new]"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	cfg, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg.SyncMarker != "[new]" {
		t.Errorf("expected invalidated cache to serve [new], got %s", cfg.SyncMarker)
	}
}

func TestCachedConfigRepositorySaveEvictsAfterCommit(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := mocks.NewMockConfigRepository()
	inner.Seed(&domain.UserSyncConfig{UserID: "user-1", SyncMarker: "[old]"})

	repo := NewCachedConfigRepository(inner, client, time.Minute)
	ctx := context.Background()
	tx := &mocks.MockTransaction{}

	if err := repo.Save(ctx, tx, &domain.UserSyncConfig{UserID: "user-1", SyncMarker: "[new]"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A reader racing the open transaction still sees the old row and
	// re-caches it.
	inner.GetByUserIDFunc = func(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
		return &domain.UserSyncConfig{UserID: userID, SyncMarker: "[old]"}, nil
	}
	cfg, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg.SyncMarker != "[old]" {
		t.Fatalf("expected the pre-commit row, got %s", cfg.SyncMarker)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	inner.GetByUserIDFunc = nil

	cfg, err = repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg.SyncMarker != "[new]" {
		t.Errorf("expected the commit to evict the stale entry, got %s", cfg.SyncMarker)
	}
}

func TestCachedConfigRepositoryTTL(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	inner := mocks.NewMockConfigRepository()
	inner.Seed(&domain.UserSyncConfig{UserID: "user-1", SyncMarker: "[synced]"})

	repo := NewCachedConfigRepository(inner, client, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetByUserID(ctx, "user-1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	// Entry expired; the read falls through without error.
	if _, err := repo.GetByUserID(ctx, "user-1"); err != nil {
		t.Fatalf("get after expiry failed: %v", err)
	}
}
