package dto

import (
	"github.com/iho/splitsync/internal/domain"
)

// SaveConfigRequest is the payload for PUT /api/v1/config.
type SaveConfigRequest struct {
	LedgerBudgetID     string `json:"ledger_budget_id"`
	LedgerAccountID    string `json:"ledger_account_id"`
	SplitGroupID       string `json:"split_group_id"`
	SplitUserID        string `json:"split_user_id"`
	CurrencyCode       string `json:"currency_code"`
	SyncMarker         string `json:"sync_marker"`
	SplitRatio         string `json:"split_ratio"`
	PayeeMode          string `json:"payee_mode"`
	CustomPayeeName    string `json:"custom_payee_name"`
	LedgerManualFlag   string `json:"ledger_manual_flag"`
	LedgerSyncedFlag   string `json:"ledger_synced_flag"`
	LedgerAccessToken  string `json:"ledger_access_token"`
	LedgerRefreshToken string `json:"ledger_refresh_token"`
	SplitAccessToken   string `json:"split_access_token"`
}

// ToDomain merges the request over the user's stored config, so
// omitted credential fields keep their saved values.
func (r *SaveConfigRequest) ToDomain(userID string, existing *domain.UserSyncConfig) *domain.UserSyncConfig {
	cfg := &domain.UserSyncConfig{UserID: userID}
	if existing != nil {
		*cfg = *existing
	}

	cfg.LedgerBudgetID = r.LedgerBudgetID
	cfg.LedgerAccountID = r.LedgerAccountID
	cfg.SplitGroupID = r.SplitGroupID
	cfg.SplitUserID = r.SplitUserID
	cfg.CurrencyCode = r.CurrencyCode
	cfg.SyncMarker = r.SyncMarker
	cfg.SplitRatio = r.SplitRatio
	cfg.PayeeMode = domain.PayeeMode(r.PayeeMode)
	if cfg.PayeeMode == "" {
		cfg.PayeeMode = domain.PayeeModeDefault
	}
	cfg.CustomPayeeName = r.CustomPayeeName
	cfg.LedgerManualFlag = r.LedgerManualFlag
	cfg.LedgerSyncedFlag = r.LedgerSyncedFlag

	if r.LedgerAccessToken != "" {
		cfg.LedgerAccessToken = r.LedgerAccessToken
	}
	if r.LedgerRefreshToken != "" {
		cfg.LedgerRefreshToken = r.LedgerRefreshToken
	}
	if r.SplitAccessToken != "" {
		cfg.SplitAccessToken = r.SplitAccessToken
	}

	return cfg
}

// AcceptInviteRequest is the payload for POST /api/v1/duo/accept.
type AcceptInviteRequest struct {
	Code string `json:"code"`
}

// UnlinkRequest is the payload for POST /api/v1/duo/unlink.
type UnlinkRequest struct {
	Confirm bool `json:"confirm"`
}
