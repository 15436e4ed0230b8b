package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/infrastructure/metrics"
)

// BatchUseCase runs the scheduled pass over every eligible user.
// Eligibility is evaluated at batch start; a user disabled mid-batch
// by their own pass simply fails that pass, the rest continue.
type BatchUseCase struct {
	configRepo ConfigRepository
	sync       *SyncUseCase
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewBatchUseCase creates a new BatchUseCase. metrics may be nil.
func NewBatchUseCase(configRepo ConfigRepository, sync *SyncUseCase, m *metrics.Metrics, logger zerolog.Logger) *BatchUseCase {
	return &BatchUseCase{
		configRepo: configRepo,
		sync:       sync,
		metrics:    m,
		logger:     logger,
	}
}

// BatchUserResult is one user's outcome within a batch run.
type BatchUserResult struct {
	UserID string
	Result *SyncResult
	Error  string
}

// BatchResult summarizes one scheduled run.
type BatchResult struct {
	TotalUsers   int
	SuccessCount int
	ErrorCount   int
	Results      []BatchUserResult
}

// Run executes one pass per eligible user, sequentially. One user's
// failure never stops the batch.
func (uc *BatchUseCase) Run(ctx context.Context) (*BatchResult, error) {
	configs, err := uc.configRepo.ListEligible(ctx)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BatchRuns.Inc()
		uc.metrics.BatchUsers.Observe(float64(len(configs)))
	}

	out := &BatchResult{TotalUsers: len(configs)}

	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		result, err := uc.sync.RunPass(ctx, cfg.UserID)
		userResult := BatchUserResult{UserID: cfg.UserID, Result: result}

		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			// A manual trigger beat us to it; not a failure.
			uc.logger.Info().Str("user_id", cfg.UserID).Msg("skipping user with pass in progress")
			userResult.Error = err.Error()
		case err != nil:
			out.ErrorCount++
			userResult.Error = err.Error()
			uc.logger.Error().Err(err).Str("user_id", cfg.UserID).Msg("batch pass failed")
		case result.Success:
			out.SuccessCount++
		default:
			out.ErrorCount++
			userResult.Error = result.Error
		}

		out.Results = append(out.Results, userResult)
	}

	uc.logger.Info().
		Int("total", out.TotalUsers).
		Int("success", out.SuccessCount).
		Int("errors", out.ErrorCount).
		Msg("batch run finished")

	return out, nil
}
