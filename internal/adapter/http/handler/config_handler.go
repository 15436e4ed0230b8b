package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

// ConfigService defines the config reads needed by ConfigHandler.
type ConfigService interface {
	Get(ctx context.Context, userID string) (*domain.UserSyncConfig, error)
	Enable(ctx context.Context, userID string) (*domain.UserSyncConfig, error)
}

// ConfigSaveService defines the save path, which routes through the
// duo resolver for partner propagation.
type ConfigSaveService interface {
	SaveConfig(ctx context.Context, cfg *domain.UserSyncConfig) (*usecase.SaveConfigResult, error)
}

// ConfigHandler handles config-related HTTP requests.
type ConfigHandler struct {
	configUC ConfigService
	saveUC   ConfigSaveService
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configUC ConfigService, saveUC ConfigSaveService) *ConfigHandler {
	return &ConfigHandler{configUC: configUC, saveUC: saveUC}
}

// Get retrieves the authenticated user's configuration.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	cfg, err := h.configUC.Get(r.Context(), userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get config", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConfigFromDomain(cfg))
}

// Save upserts the authenticated user's configuration.
func (h *ConfigHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req dto.SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	existing, err := h.configUC.Get(r.Context(), userID)
	if err != nil && !errors.Is(err, domain.ErrConfigNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to load config", err.Error())
		return
	}

	result, err := h.saveUC.SaveConfig(r.Context(), req.ToDomain(userID, existing))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to save config", err.Error())
		return
	}

	resp := dto.ConfigFromDomain(result.Config)
	resp.CurrencySynced = result.CurrencySynced
	writeJSON(w, http.StatusOK, resp)
}

// Enable clears a disabled account.
func (h *ConfigHandler) Enable(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	cfg, err := h.configUC.Enable(r.Context(), userID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to enable account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConfigFromDomain(cfg))
}
