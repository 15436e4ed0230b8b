package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfigNotFound),
		errors.Is(err, domain.ErrHistoryNotFound),
		errors.Is(err, domain.ErrInviteNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountDisabled),
		errors.Is(err, domain.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSyncInProgress),
		errors.Is(err, domain.ErrMarkerConflict),
		errors.Is(err, domain.ErrGroupInUseSolo),
		errors.Is(err, domain.ErrGroupInUseDual),
		errors.Is(err, domain.ErrAlreadyLinked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConfigIncomplete),
		errors.Is(err, domain.ErrFlagConflict),
		errors.Is(err, domain.ErrInvalidSplitRatio),
		errors.Is(err, domain.ErrInvalidMarker),
		errors.Is(err, domain.ErrNotLinked),
		errors.Is(err, domain.ErrConfirmationRequired),
		errors.Is(err, domain.ErrInviteExpired),
		errors.Is(err, domain.ErrSelfLink):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
