package upstream

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/adapter/ledgerapi"
	"github.com/iho/splitsync/internal/adapter/splitapi"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// Factory builds per-user upstream clients from a config's stored
// credentials. One shared HTTP client backs every upstream call.
type Factory struct {
	httpClient    *http.Client
	ledgerBaseURL string
	splitBaseURL  string
	tokens        ledgerapi.TokenStore
	logger        zerolog.Logger
}

// NewFactory creates a new Factory. tokens receives rotated ledger
// credentials after a refresh.
func NewFactory(ledgerBaseURL, splitBaseURL string, tokens ledgerapi.TokenStore, logger zerolog.Logger) *Factory {
	return &Factory{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		ledgerBaseURL: ledgerBaseURL,
		splitBaseURL:  splitBaseURL,
		tokens:        tokens,
		logger:        logger,
	}
}

// Ledger builds a Ledger Service client for the config's user.
func (f *Factory) Ledger(cfg *domain.UserSyncConfig) usecase.LedgerClient {
	return ledgerapi.New(ledgerapi.Config{
		HTTPClient:   f.httpClient,
		BaseURL:      f.ledgerBaseURL,
		UserID:       cfg.UserID,
		BudgetID:     cfg.LedgerBudgetID,
		AccessToken:  cfg.LedgerAccessToken,
		RefreshToken: cfg.LedgerRefreshToken,
		Tokens:       f.tokens,
		Logger:       f.logger.With().Str("client", "ledger").Str("user_id", cfg.UserID).Logger(),
	})
}

// Split builds a Split-Expense Service client for the config's user.
func (f *Factory) Split(cfg *domain.UserSyncConfig) usecase.SplitClient {
	return splitapi.New(splitapi.Config{
		HTTPClient:  f.httpClient,
		BaseURL:     f.splitBaseURL,
		AccessToken: cfg.SplitAccessToken,
		Logger:      f.logger.With().Str("client", "split").Str("user_id", cfg.UserID).Logger(),
	})
}
