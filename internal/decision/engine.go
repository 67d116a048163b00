// Package decision implements the engagement decision pipeline: priority
// scoring, routing, action execution, and the engine that orchestrates them
// with caching, a concurrency bound, and an audit trail.
package decision

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/engage/internal/analysis/intent"
	"github.com/ignite/engage/internal/analysis/sentiment"
	"github.com/ignite/engage/internal/analysis/topics"
	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
)

// autoResponseConfidenceFloor is the quality-gate minimum for automatic
// responses regardless of the configured thresholds.
const autoResponseConfidenceFloor = 0.8

// AuditRepository persists decision audit trails when audit logging is on.
type AuditRepository interface {
	SaveAudit(ctx context.Context, decisionID string, entries []domain.AuditEntry) error
}

// Result is the full outcome of one pipeline run.
type Result struct {
	Output           domain.DecisionOutput    `json:"output"`
	Routing          domain.RoutingDecision   `json:"routing"`
	Sentiment        domain.SentimentResult   `json:"sentiment"`
	Intent           domain.IntentResult      `json:"intent"`
	Priority         domain.PriorityScore     `json:"priority"`
	Executions       []domain.ExecutionResult `json:"executions,omitempty"`
	ValidationPassed bool                     `json:"validation_passed"`
	TimedOut         bool                     `json:"timed_out,omitempty"`
	Audit            []domain.AuditEntry      `json:"audit,omitempty"`
	Cached           bool                     `json:"cached,omitempty"`
}

// Engine runs the decision pipeline for inbound events.
type Engine struct {
	cfg     config.EngineConfig
	quality config.QualityConfig

	analyzer   *sentiment.Analyzer
	classifier *intent.Classifier
	topics     *topics.Engine
	scorer     *PriorityScorer
	router     *Router
	executor   *Executor

	cache   *resultCache
	metrics *Metrics
	sem     chan struct{}
	clock   clock.Clock
	audits  AuditRepository // nil disables persistence

	mu     sync.Mutex
	active map[string]struct{}
}

func NewEngine(cfg config.EngineConfig, quality config.QualityConfig, analyzer *sentiment.Analyzer, classifier *intent.Classifier, topicEngine *topics.Engine, scorer *PriorityScorer, router *Router, executor *Executor, clk clock.Clock) *Engine {
	maxConcurrent := cfg.MaxConcurrentDecisions
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Engine{
		cfg:        cfg,
		quality:    quality,
		analyzer:   analyzer,
		classifier: classifier,
		topics:     topicEngine,
		scorer:     scorer,
		router:     router,
		executor:   executor,
		cache:      newResultCache(cfg.CacheExpiration(), clk),
		metrics:    NewMetrics(),
		sem:        make(chan struct{}, maxConcurrent),
		clock:      clk,
		active:     make(map[string]struct{}),
	}
}

// SetAuditRepository attaches persistent audit storage.
func (e *Engine) SetAuditRepository(repo AuditRepository) {
	e.audits = repo
}

// Metrics exposes the engine's counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Process runs the full pipeline for one event. Returns ErrCapacityExceeded
// immediately when the pool is full; cached results are returned as-is.
func (e *Engine) Process(ctx context.Context, event *domain.SocialEvent, brand *domain.BrandContext) (*Result, error) {
	if e.cfg.EnableDecisionCaching {
		if cached, ok := e.cache.get(event.ID); ok {
			e.metrics.recordCacheHit()
			hit := *cached
			hit.Cached = true
			return &hit, nil
		}
	}

	select {
	case e.sem <- struct{}{}:
	default:
		e.metrics.recordCapacityRejection()
		return nil, fmt.Errorf("%w: %d decisions in flight", ErrCapacityExceeded, cap(e.sem))
	}
	defer func() { <-e.sem }()

	e.trackActive(event.ID, true)
	defer e.trackActive(event.ID, false)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.DecisionTimeout())
	defer cancel()

	started := e.clock.Now()
	result := e.runPipeline(ctx, event, brand)
	latency := e.clock.Now().Sub(started)

	e.metrics.recordDecision(result.Routing.Route, latency, result.ValidationPassed)
	if result.TimedOut {
		e.metrics.recordTimeout()
	}

	if e.cfg.EnableDecisionCaching && !result.TimedOut {
		e.cache.set(event.ID, result)
	}
	e.persistAudit(event, result)

	logger.Info("decision complete",
		"event_id", event.ID, "route", string(result.Routing.Route),
		"confidence", result.Routing.Confidence,
		"validation_passed", result.ValidationPassed,
		"latency_ms", latency.Milliseconds())
	return result, nil
}

// ExecuteApproved dispatches the actions of a suggestion decision after a
// human approves it.
func (e *Engine) ExecuteApproved(ctx context.Context, result *Result, event *domain.SocialEvent, brand *domain.BrandContext) []domain.ExecutionResult {
	return e.executor.Execute(ctx, &result.Routing, event, brand, true)
}

func (e *Engine) runPipeline(ctx context.Context, event *domain.SocialEvent, brand *domain.BrandContext) *Result {
	trail := newAuditTrail(e.clock)
	trail.add("received", map[string]string{
		"event_id": event.ID,
		"platform": string(event.Platform),
	})

	sent, intentResult, ok := e.analyze(ctx, event)
	if !ok {
		return e.timeoutResult(event, brand, trail)
	}
	trail.add("analysis", map[string]string{
		"sentiment": string(sent.Overall.Label),
		"intent":    string(intentResult.Primary.Intent),
		"urgency":   string(intentResult.Urgency.Level),
	})

	e.topics.Process(ctx, []*domain.SocialEvent{event})
	topicLabels := e.topics.Labels(event.ID)
	trail.add("topics", map[string]string{"labels": strings.Join(topicLabels, ", ")})

	if ctx.Err() != nil {
		return e.timeoutResult(event, brand, trail)
	}

	priority := e.scorer.Score(event, &sent, &intentResult, brand)
	trail.add("priority", map[string]string{
		"overall":    fmt.Sprintf("%.1f", priority.Overall),
		"escalation": fmt.Sprintf("%t", priority.BusinessRules.AutoEscalation),
	})

	routing := e.router.Route(event, &sent, &intentResult, &priority, brand)
	trail.add("routing", map[string]string{
		"route":      string(routing.Route),
		"confidence": fmt.Sprintf("%.2f", routing.Confidence),
	})

	var executions []domain.ExecutionResult
	if routing.Route == domain.RouteAutoResponse {
		if ctx.Err() != nil {
			return e.timeoutResult(event, brand, trail)
		}
		executions = e.executor.Execute(ctx, &routing, event, brand, false)
		trail.add("execution", map[string]string{
			"actions": fmt.Sprintf("%d", len(executions)),
		})
	}

	passed, gateReasons := e.qualityGate(&routing, executions)
	trail.add("quality_gate", map[string]string{
		"passed": fmt.Sprintf("%t", passed),
		"reason": strings.Join(gateReasons, "; "),
	})
	trail.add("completed", nil)

	return &Result{
		Output:           e.buildOutput(event, brand, &sent, &intentResult, &priority, &routing, topicLabels),
		Routing:          routing,
		Sentiment:        sent,
		Intent:           intentResult,
		Priority:         priority,
		Executions:       executions,
		ValidationPassed: passed,
		Audit:            trail.entries,
	}
}

// analyze runs sentiment and intent concurrently and waits for both or the
// deadline, whichever comes first.
func (e *Engine) analyze(ctx context.Context, event *domain.SocialEvent) (domain.SentimentResult, domain.IntentResult, bool) {
	var sent domain.SentimentResult
	var intentResult domain.IntentResult

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			sent = e.analyzer.Analyze(ctx, event)
		}()
		go func() {
			defer wg.Done()
			intentResult = e.classifier.Detect(ctx, event)
		}()
		wg.Wait()
	}()

	select {
	case <-done:
		if ctx.Err() != nil {
			return domain.SentimentResult{}, domain.IntentResult{}, false
		}
		return sent, intentResult, true
	case <-ctx.Done():
		return domain.SentimentResult{}, domain.IntentResult{}, false
	}
}

// timeoutResult produces the degraded human-review decision returned when
// the pipeline deadline expires.
func (e *Engine) timeoutResult(event *domain.SocialEvent, brand *domain.BrandContext, trail *auditTrail) *Result {
	trail.add("timeout", map[string]string{"deadline": e.cfg.DecisionTimeout().String()})

	routing := domain.RoutingDecision{
		Route:      domain.RouteHumanReview,
		Confidence: 0,
		Reasoning:  []string{"pipeline deadline exceeded"},
		Actions: []domain.DecisionAction{{
			Type:             domain.ActionEscalate,
			Priority:         5,
			RequiresApproval: true,
		}},
		Queue:      domain.QueueAssignment{Name: "review", Priority: 5},
		Escalation: domain.Escalation{Required: true, Level: "standard", Reason: "decision timeout"},
	}
	return &Result{
		Output: e.buildOutput(event, brand,
			&domain.SentimentResult{Overall: domain.OverallSentiment{Label: domain.SentimentNeutral}},
			&domain.IntentResult{Primary: domain.IntentMatch{Intent: domain.IntentGeneral}},
			&domain.PriorityScore{},
			&routing, nil),
		Routing:          routing,
		ValidationPassed: false,
		TimedOut:         true,
		Audit:            trail.entries,
	}
}

// qualityGate validates the decision. A failing gate does not suppress the
// decision; it is surfaced through ValidationPassed.
func (e *Engine) qualityGate(routing *domain.RoutingDecision, executions []domain.ExecutionResult) (bool, []string) {
	if !e.quality.EnableValidation {
		return true, nil
	}

	var reasons []string
	if routing.Confidence < e.quality.RequireMinimumConfidence {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below minimum %.2f",
			routing.Confidence, e.quality.RequireMinimumConfidence))
	}
	if routing.Route == domain.RouteAutoResponse && routing.Confidence < autoResponseConfidenceFloor {
		reasons = append(reasons, "auto-response below confidence floor")
	}
	for _, ex := range executions {
		if ex.Action == domain.ActionEscalate && ex.Status == domain.ExecutionFailed && ex.Terminal {
			reasons = append(reasons, "escalation failed terminally")
		}
	}
	return len(reasons) == 0, reasons
}

func (e *Engine) buildOutput(event *domain.SocialEvent, brand *domain.BrandContext, sent *domain.SentimentResult, intentResult *domain.IntentResult, priority *domain.PriorityScore, routing *domain.RoutingDecision, topicLabels []string) domain.DecisionOutput {
	var brandBlock domain.DecisionOutputBrand
	if brand != nil {
		compliance := "approved"
		if routing.Route == domain.RouteHumanReview {
			compliance = "pending_review"
		}
		brandBlock = domain.DecisionOutputBrand{
			BrandID:          brand.BrandID,
			PlaybookVersion:  brand.Playbook.Version,
			MatchedPersona:   brand.DefaultPersona().Name,
			ComplianceStatus: compliance,
		}
	}

	primary := ""
	var secondary []string
	for i, action := range routing.Actions {
		if i == 0 {
			primary = string(action.Type)
			continue
		}
		secondary = append(secondary, string(action.Type))
	}

	return domain.DecisionOutput{
		ID:           uuid.New().String(),
		EventID:      event.ID,
		Timestamp:    e.clock.Now(),
		BrandContext: brandBlock,
		Analysis: domain.DecisionOutputAnalysis{
			Sentiment:   sent.Overall.Label,
			Intent:      intentResult.Primary.Intent,
			Topics:      topicLabels,
			Urgency:     intentResult.Urgency.Level,
			BrandImpact: brandImpact(priority.Components.BrandRisk),
		},
		Decision: domain.DecisionOutputDecision{
			PrimaryAction:       primary,
			SecondaryActions:    secondary,
			Confidence:          routing.Confidence,
			Reasoning:           strings.Join(routing.Reasoning, "; "),
			HumanReviewRequired: routing.Route == domain.RouteHumanReview,
			EscalationLevel:     routing.Escalation.Level,
		},
		RecommendedActions: routing.Actions,
		Monitoring:         routing.Monitoring,
	}
}

func (e *Engine) persistAudit(event *domain.SocialEvent, result *Result) {
	if e.audits == nil || !e.quality.EnableAuditLogging {
		return
	}
	// Persistence failures must not affect the decision path.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.audits.SaveAudit(ctx, result.Output.ID, result.Audit); err != nil {
		logger.Error("audit persistence failed",
			"event_id", event.ID, "decision_id", result.Output.ID, "error", err.Error())
	}
}

func (e *Engine) trackActive(eventID string, add bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if add {
		e.active[eventID] = struct{}{}
	} else {
		delete(e.active, eventID)
	}
}

// ActiveCount reports the number of in-flight decisions.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

func brandImpact(risk float64) domain.BrandImpact {
	switch {
	case risk >= 0.66:
		return domain.BrandImpactHigh
	case risk >= 0.33:
		return domain.BrandImpactMedium
	default:
		return domain.BrandImpactLow
	}
}

// auditTrail accumulates ordered stage entries.
type auditTrail struct {
	clock   clock.Clock
	entries []domain.AuditEntry
}

func newAuditTrail(clk clock.Clock) *auditTrail {
	return &auditTrail{clock: clk}
}

func (t *auditTrail) add(stage string, details map[string]string) {
	t.entries = append(t.entries, domain.AuditEntry{
		Stage:     stage,
		Timestamp: t.clock.Now(),
		Details:   details,
	})
}
