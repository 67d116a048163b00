package api

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/engage/internal/domain"
)

type processEventRequest struct {
	BrandID string             `json:"brand_id"`
	Event   domain.SocialEvent `json:"event"`
}

// ProcessEvent handles POST /api/events. Runs the decision pipeline for one
// inbound event against the named brand's context.
func (h *Handlers) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	var req processEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BrandID == "" {
		respondError(w, http.StatusBadRequest, "brand_id is required")
		return
	}
	if req.Event.ID == "" {
		respondError(w, http.StatusBadRequest, "event.id is required")
		return
	}

	brandCtx, err := h.brands.Get(r.Context(), req.BrandID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.engine.Process(r.Context(), &req.Event, brandCtx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
