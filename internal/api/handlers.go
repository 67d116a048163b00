package api

import (
	"context"
	"net/http"

	"github.com/ignite/engage/internal/decision"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/scheduling"
)

// DecisionEngine runs the decision pipeline for inbound events.
type DecisionEngine interface {
	Process(ctx context.Context, event *domain.SocialEvent, brand *domain.BrandContext) (*decision.Result, error)
}

// BrandSource resolves brand operating contexts.
type BrandSource interface {
	Get(ctx context.Context, brandID string) (*domain.BrandContext, error)
}

// StatsFunc reports one component's counters for the metrics endpoint.
type StatsFunc func() map[string]interface{}

// Handlers carries the services the HTTP layer fronts.
type Handlers struct {
	engine    DecisionEngine
	brands    BrandSource
	scheduler *scheduling.Service
	schedules scheduling.Repository
	clock     clock.Clock

	stats map[string]StatsFunc
}

// NewHandlers creates the handler set.
func NewHandlers(engine DecisionEngine, brands BrandSource, scheduler *scheduling.Service, schedules scheduling.Repository, clk clock.Clock) *Handlers {
	return &Handlers{
		engine:    engine,
		brands:    brands,
		scheduler: scheduler,
		schedules: schedules,
		clock:     clk,
		stats:     map[string]StatsFunc{},
	}
}

// AddStatsSource registers a named counter snapshot for GET /api/metrics.
func (h *Handlers) AddStatsSource(name string, fn StatsFunc) {
	h.stats[name] = fn
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "engage",
	})
}

// Metrics handles GET /api/metrics. Aggregates every registered source.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]interface{}, len(h.stats))
	for name, fn := range h.stats {
		out[name] = fn()
	}
	respondJSON(w, http.StatusOK, out)
}
