package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/scheduling"
)

// CreateSchedule handles POST /api/schedules.
func (h *Handlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduling.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sched, err := h.scheduler.ScheduleContent(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sched)
}

// BulkSchedule handles POST /api/schedules/bulk.
func (h *Handlers) BulkSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduling.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items is empty")
		return
	}

	result, err := h.scheduler.BulkScheduleContent(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetSchedule handles GET /api/schedules/{scheduleID}.
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scheduleID")
	sched, err := h.schedules.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

// UpdateSchedule handles PUT /api/schedules/{scheduleID}.
func (h *Handlers) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scheduleID")
	var upd scheduling.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sched, err := h.scheduler.UpdateScheduledContent(r.Context(), id, upd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelSchedule handles POST /api/schedules/{scheduleID}/cancel.
func (h *Handlers) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scheduleID")
	var req cancelRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}

	if err := h.scheduler.CancelScheduledContent(r.Context(), id, req.Reason); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "id": id})
}

// ListSchedules handles GET /api/brands/{brandID}/schedules.
func (h *Handlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	brandID := chi.URLParam(r, "brandID")
	q := r.URL.Query()

	filter := scheduling.ListFilter{
		Status:     domain.ScheduleStatus(q.Get("status")),
		CampaignID: q.Get("campaign_id"),
	}
	if p := q.Get("platform"); p != "" {
		platform := domain.Platform(p)
		if !platform.Valid() {
			respondError(w, http.StatusBadRequest, "unknown platform: "+p)
			return
		}
		filter.Platform = platform
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	items, err := h.schedules.ListByBrand(r.Context(), brandID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": items,
		"count":     len(items),
	})
}

// CalendarView handles GET /api/brands/{brandID}/calendar.
func (h *Handlers) CalendarView(w http.ResponseWriter, r *http.Request) {
	brandID := chi.URLParam(r, "brandID")
	q := r.URL.Query()

	view := domain.CalendarViewType(q.Get("view"))
	if view == "" {
		view = domain.CalendarWeek
	}
	switch view {
	case domain.CalendarDay, domain.CalendarWeek, domain.CalendarMonth, domain.CalendarYear:
	default:
		respondError(w, http.StatusBadRequest, "unknown view: "+string(view))
		return
	}

	start := h.clock.Now()
	if v := q.Get("start"); v != "" {
		parsed, err := parseTimeParam(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start time")
			return
		}
		start = parsed
	}

	tz := q.Get("timezone")
	if tz == "" {
		tz = "UTC"
	}

	cal, err := h.scheduler.GetCalendarView(r.Context(), brandID, view, start, tz)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cal)
}

// OptimalTimes handles GET /api/brands/{brandID}/optimal-times.
func (h *Handlers) OptimalTimes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	platforms := domain.AllPlatforms
	if v := q.Get("platforms"); v != "" {
		platforms = nil
		for _, raw := range strings.Split(v, ",") {
			platform := domain.Platform(strings.TrimSpace(raw))
			if !platform.Valid() {
				respondError(w, http.StatusBadRequest, "unknown platform: "+string(platform))
				return
			}
			platforms = append(platforms, platform)
		}
	}

	contentType := domain.ContentType(q.Get("content_type"))
	if contentType == "" {
		contentType = domain.ContentTypePost
	}

	from := h.clock.Now()
	if v := q.Get("from"); v != "" {
		parsed, err := parseTimeParam(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from time")
			return
		}
		from = parsed
	}
	to := from.Add(7 * 24 * time.Hour)
	if v := q.Get("to"); v != "" {
		parsed, err := parseTimeParam(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to time")
			return
		}
		to = parsed
	}
	if !to.After(from) {
		respondError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	count := 5
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = n
	}

	times, err := h.scheduler.SuggestOptimalTimes(platforms, contentType, from, to, count)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"optimal_times": times,
		"count":         len(times),
	})
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates.
func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
