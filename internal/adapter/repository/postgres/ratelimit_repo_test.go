package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestRateLimitRepositoryHitAdmitsFreshWindow(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	mockPool.ExpectQuery(regexp.QuoteMeta(hitQuery)).
		WithArgs("user-1", "manual:hourly", now, now.Add(-window), int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"window_start", "count"}).
			AddRow(now, int64(1)))

	repo := newRateLimitRepositoryWithPool(mockPool)
	allowed, counter, err := repo.Hit(context.Background(), "user-1", "manual:hourly", 6, window, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("expected a fresh window to admit")
	}
	if counter.Count != 1 {
		t.Errorf("expected counter to start at 1, got %d", counter.Count)
	}
	if !counter.WindowStart.Equal(now) {
		t.Errorf("expected window anchored at the hit, got %v", counter.WindowStart)
	}

	assertExpectations(t, mockPool)
}

func TestRateLimitRepositoryHitIncrementsLiveWindow(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	windowStart := now.Add(-30 * time.Minute)

	mockPool.ExpectQuery(regexp.QuoteMeta(hitQuery)).
		WithArgs("user-1", "manual:hourly", now, now.Add(-time.Hour), int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"window_start", "count"}).
			AddRow(windowStart, int64(4)))

	repo := newRateLimitRepositoryWithPool(mockPool)
	allowed, counter, err := repo.Hit(context.Background(), "user-1", "manual:hourly", 6, time.Hour, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("expected a window with headroom to admit")
	}
	if counter.Count != 4 {
		t.Errorf("expected incremented count from the upsert, got %d", counter.Count)
	}
	if !counter.WindowStart.Equal(windowStart) {
		t.Errorf("expected the live window kept, got %v", counter.WindowStart)
	}

	assertExpectations(t, mockPool)
}

func TestRateLimitRepositoryHitResetsExpiredWindow(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	// The upsert resets an expired row in place: count back to 1,
	// window re-anchored at the hit.
	mockPool.ExpectQuery(regexp.QuoteMeta(hitQuery)).
		WithArgs("user-1", "manual:hourly", now, now.Add(-time.Hour), int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"window_start", "count"}).
			AddRow(now, int64(1)))

	repo := newRateLimitRepositoryWithPool(mockPool)
	allowed, counter, err := repo.Hit(context.Background(), "user-1", "manual:hourly", 6, time.Hour, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("expected an expired window to admit again")
	}
	if counter.Count != 1 {
		t.Errorf("expected the counter reset to 1, got %d", counter.Count)
	}
	if !counter.WindowStart.Equal(now) {
		t.Errorf("expected the window re-anchored at the hit, got %v", counter.WindowStart)
	}

	assertExpectations(t, mockPool)
}

func TestRateLimitRepositoryHitDeniesFullWindow(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2026, 3, 1, 12, 45, 0, 0, time.UTC)
	windowStart := now.Add(-45 * time.Minute)

	// The guarded WHERE clause makes a full live window return no
	// rows; the follow-up read feeds the retry hint.
	mockPool.ExpectQuery(regexp.QuoteMeta(hitQuery)).
		WithArgs("user-1", "manual:hourly", now, now.Add(-time.Hour), int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"window_start", "count"}))
	mockPool.ExpectQuery("SELECT user_id, key, window_start, count").
		WithArgs("user-1", "manual:hourly").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "key", "window_start", "count"}).
			AddRow("user-1", "manual:hourly", windowStart, int64(6)))

	repo := newRateLimitRepositoryWithPool(mockPool)
	allowed, counter, err := repo.Hit(context.Background(), "user-1", "manual:hourly", 6, time.Hour, now)
	if err != nil {
		t.Fatalf("denial must not be an error: %v", err)
	}
	if allowed {
		t.Fatal("expected a full window to deny")
	}
	if counter.Count != 6 {
		t.Errorf("expected the untouched count, got %d", counter.Count)
	}
	if !counter.WindowStart.Equal(windowStart) {
		t.Errorf("expected the untouched window start, got %v", counter.WindowStart)
	}

	assertExpectations(t, mockPool)
}
