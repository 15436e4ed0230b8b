package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/infrastructure/metrics"
)

// RateLimitConfig carries the per-tier manual-trigger limits.
type RateLimitConfig struct {
	FreeHourlyMax   int64
	FreeDailyMax    int64
	PremiumHourlyMax int64
}

// DefaultRateLimitConfig matches the product tiers: free users get a
// small hourly and daily allowance, premium users an hourly allowance
// generous enough to never bite in practice.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		FreeHourlyMax:    6,
		FreeDailyMax:     30,
		PremiumHourlyMax: 1000,
	}
}

// RateLimitUseCase admits or denies manual sync triggers. Every check
// is a single atomic increment-and-compare in storage, so concurrent
// triggers cannot overshoot the window.
type RateLimitUseCase struct {
	repo    RateLimitRepository
	cfg     RateLimitConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRateLimitUseCase creates a new RateLimitUseCase. metrics may be
// nil.
func NewRateLimitUseCase(repo RateLimitRepository, cfg RateLimitConfig, m *metrics.Metrics, logger zerolog.Logger) *RateLimitUseCase {
	return &RateLimitUseCase{
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source stamped on every hit. Tests use
// it to step across window boundaries.
func (uc *RateLimitUseCase) WithClock(now func() time.Time) *RateLimitUseCase {
	uc.now = now
	return uc
}

// rulesFor returns the windows that apply to the user's tier, most
// restrictive first.
func (uc *RateLimitUseCase) rulesFor(tier domain.Tier) []domain.RateLimitRule {
	if tier == domain.TierPremium {
		return []domain.RateLimitRule{
			{Key: RateKeyManualHourly, Max: uc.cfg.PremiumHourlyMax, Window: time.Hour},
		}
	}

	return []domain.RateLimitRule{
		{Key: RateKeyManualHourly, Max: uc.cfg.FreeHourlyMax, Window: time.Hour},
		{Key: RateKeyManualDaily, Max: uc.cfg.FreeDailyMax, Window: 24 * time.Hour},
	}
}

// CheckManual admits one manual sync trigger against all windows for
// the user's tier. A denial is not an error: the result carries a
// deterministic retry time.
func (uc *RateLimitUseCase) CheckManual(ctx context.Context, userID string, tier domain.Tier) (*domain.RateLimitResult, error) {
	now := uc.now()

	for _, rule := range uc.rulesFor(tier) {
		allowed, counter, err := uc.repo.Hit(ctx, userID, rule.Key, rule.Max, rule.Window, now)
		if err != nil {
			return nil, err
		}

		if !allowed {
			uc.countHit(rule.Key, "denied")
			uc.logger.Debug().
				Str("user_id", userID).
				Str("key", rule.Key).
				Int64("count", counter.Count).
				Msg("manual trigger denied")

			return &domain.RateLimitResult{
				Allowed:    false,
				RetryAfter: domain.RetryAfterFrom(counter.WindowStart, rule.Window, now),
			}, nil
		}

		uc.countHit(rule.Key, "allowed")
	}

	return &domain.RateLimitResult{Allowed: true}, nil
}

func (uc *RateLimitUseCase) countHit(key, outcome string) {
	if uc.metrics != nil {
		uc.metrics.RateLimitHits.WithLabelValues(key, outcome).Inc()
	}
}
