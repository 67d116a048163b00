package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ignite/engage/internal/brand"
	"github.com/ignite/engage/internal/decision"
	"github.com/ignite/engage/internal/scheduling"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service-layer errors onto HTTP statuses. Conflict
// rejections carry the detected conflicts in the body so callers can resolve
// them.
func respondServiceError(w http.ResponseWriter, err error) {
	var conflictErr *scheduling.ConflictError
	if errors.As(err, &conflictErr) {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     err.Error(),
			"conflicts": conflictErr.Conflicts,
		})
		return
	}

	switch {
	case errors.Is(err, scheduling.ErrNotFound), errors.Is(err, brand.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduling.ErrInvalidState),
		errors.Is(err, scheduling.ErrEditLocked),
		errors.Is(err, scheduling.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, decision.ErrCapacityExceeded):
		respondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, scheduling.ErrBrandUnknown),
		errors.Is(err, scheduling.ErrTimeInPast),
		errors.Is(err, scheduling.ErrLeadTooShort),
		errors.Is(err, scheduling.ErrNoPlatforms),
		errors.Is(err, scheduling.ErrBadPlatform),
		errors.Is(err, scheduling.ErrEmptyContent),
		errors.Is(err, scheduling.ErrBadStrategy),
		errors.Is(err, scheduling.ErrLimitExceeded):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
