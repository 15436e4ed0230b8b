package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// ConfigUseCase reads configs and re-enables disabled accounts. Saves
// route through DuoUseCase because of partner propagation.
type ConfigUseCase struct {
	configRepo ConfigRepository
	logger     zerolog.Logger
}

// NewConfigUseCase creates a new ConfigUseCase.
func NewConfigUseCase(configRepo ConfigRepository, logger zerolog.Logger) *ConfigUseCase {
	return &ConfigUseCase{configRepo: configRepo, logger: logger}
}

// Get returns the user's configuration.
func (uc *ConfigUseCase) Get(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
	return uc.configRepo.GetByUserID(ctx, userID)
}

// Enable clears a disabled account without verifying the root cause
// was fixed. A recurring cause re-disables it on the next pass.
func (uc *ConfigUseCase) Enable(ctx context.Context, userID string) (*domain.UserSyncConfig, error) {
	cfg, err := uc.configRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cfg.Disabled {
		return cfg, nil
	}

	cfg.Enable()
	if err := uc.configRepo.Update(ctx, cfg); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("user_id", userID).Msg("account re-enabled")
	return cfg, nil
}
