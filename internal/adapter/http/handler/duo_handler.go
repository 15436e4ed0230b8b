package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// DuoService defines the partner-linking operations needed by DuoHandler.
type DuoService interface {
	CreateInvite(ctx context.Context, userID string) (*domain.DuoInvite, error)
	AcceptInvite(ctx context.Context, userID, code string) (*domain.DuoLink, error)
	Unlink(ctx context.Context, userID string, confirm bool) error
	Status(ctx context.Context, userID string) (*usecase.DuoStatus, error)
}

// DuoHandler handles partner-linking HTTP requests.
type DuoHandler struct {
	duoUC DuoService
}

// NewDuoHandler creates a new DuoHandler.
func NewDuoHandler(duoUC DuoService) *DuoHandler {
	return &DuoHandler{duoUC: duoUC}
}

// CreateInvite issues a new invite code for the authenticated user.
func (h *DuoHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	invite, err := h.duoUC.CreateInvite(r.Context(), userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create invite", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, &dto.InviteResponse{
		Code:      invite.Code,
		ExpiresAt: invite.ExpiresAt,
	})
}

// AcceptInvite links the authenticated user to the invite's issuer.
func (h *DuoHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req dto.AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid request body", "code is required")
		return
	}

	if _, err := h.duoUC.AcceptInvite(r.Context(), userID, req.Code); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to accept invite", err.Error())
		return
	}

	status, err := h.duoUC.Status(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get duo status", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DuoStatusFromUseCase(status))
}

// Unlink dissolves the authenticated user's partner link.
func (h *DuoHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req dto.UnlinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.duoUC.Unlink(r.Context(), userID, req.Confirm); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to unlink", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status reports the authenticated user's linking mode.
func (h *DuoHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	status, err := h.duoUC.Status(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get duo status", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DuoStatusFromUseCase(status))
}
