package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// SyncService defines the behavior needed by SyncHandler.
type SyncService interface {
	RunPass(ctx context.Context, userID string) (*usecase.SyncResult, error)
}

// BatchService defines the batch behavior needed by SyncHandler.
type BatchService interface {
	Run(ctx context.Context) (*usecase.BatchResult, error)
}

// RateLimitService defines the admission check for manual triggers.
type RateLimitService interface {
	CheckManual(ctx context.Context, userID string, tier domain.Tier) (*domain.RateLimitResult, error)
}

// HistoryService defines the history reads needed by SyncHandler.
type HistoryService interface {
	List(ctx context.Context, userID string, limit, offset int) ([]*domain.SyncHistory, error)
	Get(ctx context.Context, userID, historyID string) (*domain.SyncHistory, error)
}

// SyncHandler handles sync-related HTTP requests.
type SyncHandler struct {
	syncUC    SyncService
	batchUC   BatchService
	limiter   RateLimitService
	historyUC HistoryService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncUC SyncService, batchUC BatchService, limiter RateLimitService, historyUC HistoryService) *SyncHandler {
	return &SyncHandler{
		syncUC:    syncUC,
		batchUC:   batchUC,
		limiter:   limiter,
		historyUC: historyUC,
	}
}

// Trigger runs a manual pass for the authenticated user.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	tier := middleware.TierFromContext(r.Context())

	limit, err := h.limiter.CheckManual(r.Context(), userID, tier)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rate limit check failed", err.Error())
		return
	}
	if !limit.Allowed {
		writeJSON(w, http.StatusTooManyRequests, dto.RateLimitedResponse{
			Error:      "too many manual syncs",
			RetryAfter: int64(limit.RetryAfter.Seconds()),
		})
		return
	}

	result, err := h.syncUC.RunPass(r.Context(), userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "sync failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SyncResponseFromResult(result))
}

// TriggerBatch runs the scheduled pass over all eligible users.
func (h *SyncHandler) TriggerBatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.batchUC.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "batch run failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchResponseFromResult(result))
}

// ListHistory lists the authenticated user's passes.
func (h *SyncHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	histories, err := h.historyUC.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoriesFromDomain(histories))
}

// GetHistory retrieves one pass with its items.
func (h *SyncHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing history ID", "")
		return
	}

	history, err := h.historyUC.Get(r.Context(), userID, id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(history))
}
