package dto

import (
	"time"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SyncedItemResponse represents one attempted item.
type SyncedItemResponse struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Direction    string    `json:"direction"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func syncedItemFromDomain(item *domain.SyncedItem) *SyncedItemResponse {
	return &SyncedItemResponse{
		ID:           item.ID,
		ExternalID:   item.ExternalID,
		Type:         item.Type,
		Amount:       item.Amount,
		Description:  item.Description,
		Date:         item.Date,
		Direction:    string(item.Direction),
		Status:       string(item.Status),
		ErrorMessage: item.ErrorMessage,
	}
}

func syncedItemsFromDomain(items []*domain.SyncedItem) []*SyncedItemResponse {
	result := make([]*SyncedItemResponse, len(items))
	for i, item := range items {
		result[i] = syncedItemFromDomain(item)
	}
	return result
}

// SyncResponse is the body for POST /api/v1/sync.
type SyncResponse struct {
	Success            bool                  `json:"success"`
	SyncHistoryID      string                `json:"sync_history_id"`
	Status             string                `json:"status"`
	SyncedTransactions []*SyncedItemResponse `json:"synced_transactions"`
	SyncedExpenses     []*SyncedItemResponse `json:"synced_expenses"`
	Error              string                `json:"error,omitempty"`
}

// SyncResponseFromResult converts a pass result to a response.
func SyncResponseFromResult(result *usecase.SyncResult) *SyncResponse {
	return &SyncResponse{
		Success:            result.Success,
		SyncHistoryID:      result.SyncHistoryID,
		Status:             string(result.Status),
		SyncedTransactions: syncedItemsFromDomain(result.SyncedTransactions),
		SyncedExpenses:     syncedItemsFromDomain(result.SyncedExpenses),
		Error:              result.Error,
	}
}

// RateLimitedResponse is the 429 body for a denied manual trigger.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retry_after_seconds"`
}

// BatchResponse is the body for POST /api/v1/sync/batch.
type BatchResponse struct {
	TotalUsers   int                      `json:"total_users"`
	SuccessCount int                      `json:"success_count"`
	ErrorCount   int                      `json:"error_count"`
	Results      map[string]*SyncResponse `json:"results"`
}

// BatchResponseFromResult converts a batch result to a response.
func BatchResponseFromResult(result *usecase.BatchResult) *BatchResponse {
	out := &BatchResponse{
		TotalUsers:   result.TotalUsers,
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
		Results:      make(map[string]*SyncResponse, len(result.Results)),
	}

	for _, r := range result.Results {
		resp := &SyncResponse{Error: r.Error}
		if r.Result != nil {
			resp = SyncResponseFromResult(r.Result)
			resp.Error = firstNonEmpty(resp.Error, r.Error)
		}
		out.Results[r.UserID] = resp
	}

	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HistoryResponse represents one pass in API responses.
type HistoryResponse struct {
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	StartedAt    time.Time             `json:"started_at"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Items        []*SyncedItemResponse `json:"items,omitempty"`
}

// HistoryFromDomain converts a domain pass to a response.
func HistoryFromDomain(h *domain.SyncHistory) *HistoryResponse {
	resp := &HistoryResponse{
		ID:           h.ID,
		Status:       string(h.Status),
		StartedAt:    h.StartedAt,
		CompletedAt:  h.CompletedAt,
		ErrorMessage: h.ErrorMessage,
	}
	if len(h.Items) > 0 {
		resp.Items = syncedItemsFromDomain(h.Items)
	}
	return resp
}

// HistoriesFromDomain converts domain passes to responses.
func HistoriesFromDomain(histories []*domain.SyncHistory) []*HistoryResponse {
	result := make([]*HistoryResponse, len(histories))
	for i, h := range histories {
		result[i] = HistoryFromDomain(h)
	}
	return result
}

// ConfigResponse represents a config in API responses. Credentials are
// reported as presence flags, never echoed.
type ConfigResponse struct {
	UserID             string     `json:"user_id"`
	LedgerBudgetID     string     `json:"ledger_budget_id"`
	LedgerAccountID    string     `json:"ledger_account_id"`
	SplitGroupID       string     `json:"split_group_id"`
	SplitUserID        string     `json:"split_user_id"`
	CurrencyCode       string     `json:"currency_code"`
	SyncMarker         string     `json:"sync_marker"`
	SplitRatio         string     `json:"split_ratio"`
	PayeeMode          string     `json:"payee_mode"`
	CustomPayeeName    string     `json:"custom_payee_name"`
	LedgerManualFlag   string     `json:"ledger_manual_flag"`
	LedgerSyncedFlag   string     `json:"ledger_synced_flag"`
	LedgerConnected    bool       `json:"ledger_connected"`
	SplitConnected     bool       `json:"split_connected"`
	SubscriptionStatus string     `json:"subscription_status"`
	Tier               string     `json:"tier"`
	Disabled           bool       `json:"disabled"`
	DisabledReason     string     `json:"disabled_reason,omitempty"`
	SuggestedFix       string     `json:"suggested_fix,omitempty"`
	CurrencySynced     bool       `json:"currency_synced,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ConfigFromDomain converts a domain config to a response.
func ConfigFromDomain(c *domain.UserSyncConfig) *ConfigResponse {
	return &ConfigResponse{
		UserID:             c.UserID,
		LedgerBudgetID:     c.LedgerBudgetID,
		LedgerAccountID:    c.LedgerAccountID,
		SplitGroupID:       c.SplitGroupID,
		SplitUserID:        c.SplitUserID,
		CurrencyCode:       c.CurrencyCode,
		SyncMarker:         c.SyncMarker,
		SplitRatio:         c.SplitRatio,
		PayeeMode:          string(c.PayeeMode),
		CustomPayeeName:    c.CustomPayeeName,
		LedgerManualFlag:   c.LedgerManualFlag,
		LedgerSyncedFlag:   c.LedgerSyncedFlag,
		LedgerConnected:    c.LedgerAccessToken != "",
		SplitConnected:     c.SplitAccessToken != "",
		SubscriptionStatus: string(c.SubscriptionStatus),
		Tier:               string(c.Tier),
		Disabled:           c.Disabled,
		DisabledReason:     c.DisabledReason,
		SuggestedFix:       c.SuggestedFix,
		UpdatedAt:          c.UpdatedAt,
	}
}

// InviteResponse represents a duo invite.
type InviteResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DuoStatusResponse represents the caller's linking state.
type DuoStatusResponse struct {
	Mode          string     `json:"mode"`
	PartnerUserID string     `json:"partner_user_id,omitempty"`
	LinkedAt      *time.Time `json:"linked_at,omitempty"`
}

// DuoStatusFromUseCase converts a duo status to a response.
func DuoStatusFromUseCase(s *usecase.DuoStatus) *DuoStatusResponse {
	return &DuoStatusResponse{
		Mode:          string(s.Mode),
		PartnerUserID: s.PartnerUserID,
		LinkedAt:      s.LinkedAt,
	}
}
