package usecase

import (
	"context"

	"github.com/iho/splitsync/internal/domain"
)

// HistoryUseCase reads past passes for the API surface.
type HistoryUseCase struct {
	historyRepo HistoryRepository
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(historyRepo HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{historyRepo: historyRepo}
}

// List returns the user's passes, newest first. The limit is clamped
// into [1, MaxHistoryPageSize] with DefaultHistoryPageSize as the
// zero-value default.
func (uc *HistoryUseCase) List(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}
	if limit > MaxHistoryPageSize {
		limit = MaxHistoryPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return uc.historyRepo.ListByUser(ctx, userID, limit, offset)
}

// Get returns one pass with its items. Other users' passes read as
// not found.
func (uc *HistoryUseCase) Get(ctx context.Context, userID, historyID string) (*domain.SyncHistory, error) {
	history, err := uc.historyRepo.GetByID(ctx, historyID)
	if err != nil {
		return nil, err
	}

	if history.UserID != userID {
		return nil, domain.ErrHistoryNotFound
	}

	return history, nil
}
