package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/adapter/splitapi"
	"github.com/iho/splitsync/internal/apierror"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

func newBatchFixture() (*syncFixture, *usecase.BatchUseCase) {
	f := newSyncFixture()
	batch := usecase.NewBatchUseCase(f.configRepo, f.uc, nil, zerolog.Nop())
	return f, batch
}

func TestBatchUseCase_Run(t *testing.T) {
	f, batch := newBatchFixture()

	f.configRepo.Seed(testConfig("user-1"))
	f.configRepo.Seed(testConfig("user-2"))

	disabled := testConfig("user-3")
	disabled.Disable("token revoked", "reconnect")
	f.configRepo.Seed(disabled)

	lapsed := testConfig("user-4")
	lapsed.SubscriptionStatus = domain.SubscriptionLapsed
	f.configRepo.Seed(lapsed)

	result, err := batch.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Disabled and lapsed users never enter the batch.
	if result.TotalUsers != 2 {
		t.Errorf("expected 2 eligible users, got %d", result.TotalUsers)
	}
	if result.SuccessCount != 2 {
		t.Errorf("expected 2 successes, got %d", result.SuccessCount)
	}
	if result.ErrorCount != 0 {
		t.Errorf("expected no errors, got %d", result.ErrorCount)
	}
}

func TestBatchUseCase_OneFailureDoesNotStopBatch(t *testing.T) {
	f, batch := newBatchFixture()

	f.configRepo.Seed(testConfig("user-1"))
	f.configRepo.Seed(testConfig("user-2"))

	f.clients.SplitClient.FetchUnprocessedFunc = func(ctx context.Context, groupID string, since time.Time, marker string) ([]splitapi.Expense, error) {
		return nil, apierror.Classify("split.fetch", 500, "boom")
	}

	result, err := batch.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalUsers != 2 {
		t.Errorf("expected 2 users attempted, got %d", result.TotalUsers)
	}
	if result.ErrorCount != 2 {
		t.Errorf("expected 2 failed passes, got %d", result.ErrorCount)
	}
	if len(result.Results) != 2 {
		t.Errorf("expected per-user results, got %d", len(result.Results))
	}
}

func TestBatchUseCase_SkipsUserWithPassInProgress(t *testing.T) {
	f, batch := newBatchFixture()
	f.configRepo.Seed(testConfig("user-1"))

	f.locker.AcquireFunc = func(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
		return false, nil
	}

	result, err := batch.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ErrorCount != 0 {
		t.Errorf("a pass already in progress is not a failure, got %d errors", result.ErrorCount)
	}
}
