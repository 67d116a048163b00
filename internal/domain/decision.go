package domain

import "time"

// Route enumerates the possible decision routes.
type Route string

const (
	RouteAutoResponse Route = "auto-response"
	RouteSuggestion   Route = "suggestion"
	RouteHumanReview  Route = "human-review"
)

// ActionType enumerates dispatchable action kinds.
type ActionType string

const (
	ActionRespond  ActionType = "RESPOND"
	ActionSuggest  ActionType = "SUGGEST"
	ActionEscalate ActionType = "ESCALATE"
	ActionMonitor  ActionType = "MONITOR"
	ActionNotify   ActionType = "NOTIFY"
)

// DecisionAction is a single action attached to a routing decision.
type DecisionAction struct {
	Type             ActionType        `json:"type"`
	Priority         int               `json:"priority"` // [1,10]
	Confidence       float64           `json:"confidence"`
	Automated        bool              `json:"automated"`
	RequiresApproval bool              `json:"requires_approval"`
	Parameters       map[string]string `json:"parameters,omitempty"`
}

// QueueAssignment describes where a decision waits for a human.
type QueueAssignment struct {
	Name              string        `json:"name"`
	Priority          int           `json:"priority"` // [1,10]
	EstimatedWaitTime time.Duration `json:"estimated_wait_time"`
}

// Escalation captures whether and why a decision must reach a reviewer.
type Escalation struct {
	Required bool   `json:"required"`
	Level    string `json:"level,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Monitoring configures the follow-up created alongside a decision.
type Monitoring struct {
	TrackingID       string     `json:"tracking_id"`
	KPIs             []string   `json:"kpis,omitempty"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`
}

// RoutingDecision is the routed outcome for one event.
type RoutingDecision struct {
	Route      Route            `json:"route"`
	Confidence float64          `json:"confidence"` // [0,1]
	Reasoning  []string         `json:"reasoning,omitempty"`
	Actions    []DecisionAction `json:"actions"`
	Queue      QueueAssignment  `json:"queue"`
	Escalation Escalation       `json:"escalation"`
	Monitoring Monitoring       `json:"monitoring"`
}

// ExecutionStatus enumerates per-action execution outcomes.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// ExecutionResult records the outcome of dispatching one action.
type ExecutionResult struct {
	Action    ActionType      `json:"action"`
	Status    ExecutionStatus `json:"status"`
	Detail    string          `json:"detail,omitempty"`
	Terminal  bool            `json:"terminal,omitempty"` // content/auth errors never retry
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// BrandImpact buckets the projected effect of an event on the brand.
type BrandImpact string

const (
	BrandImpactLow    BrandImpact = "low"
	BrandImpactMedium BrandImpact = "medium"
	BrandImpactHigh   BrandImpact = "high"
)

// AuditEntry is one ordered stage record in a decision's audit trail.
type AuditEntry struct {
	Stage     string            `json:"stage"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// DecisionOutputBrand is the brand block of the canonical output schema.
type DecisionOutputBrand struct {
	BrandID          string `json:"brandId"`
	PlaybookVersion  string `json:"playbookVersion"`
	MatchedPersona   string `json:"matchedPersona"`
	ComplianceStatus string `json:"complianceStatus"`
}

// DecisionOutputAnalysis is the analysis block of the canonical output schema.
type DecisionOutputAnalysis struct {
	Sentiment   SentimentLabel `json:"sentiment"`
	Intent      Intent         `json:"intent"`
	Topics      []string       `json:"topics,omitempty"`
	Urgency     UrgencyLevel   `json:"urgency"`
	BrandImpact BrandImpact    `json:"brandImpact"`
}

// DecisionOutputDecision is the decision block of the canonical output schema.
type DecisionOutputDecision struct {
	PrimaryAction       string   `json:"primaryAction"`
	SecondaryActions    []string `json:"secondaryActions,omitempty"`
	Confidence          float64  `json:"confidence"`
	Reasoning           string   `json:"reasoning"`
	HumanReviewRequired bool     `json:"humanReviewRequired"`
	EscalationLevel     string   `json:"escalationLevel,omitempty"`
}

// DecisionOutput is the stable schema consumed by downstream integrations.
// Field names are part of the external contract; do not rename.
type DecisionOutput struct {
	ID                 string                 `json:"id"`
	EventID            string                 `json:"eventId"`
	Timestamp          time.Time              `json:"timestamp"`
	BrandContext       DecisionOutputBrand    `json:"brandContext"`
	Analysis           DecisionOutputAnalysis `json:"analysis"`
	Decision           DecisionOutputDecision `json:"decision"`
	RecommendedActions []DecisionAction       `json:"recommendedActions,omitempty"`
	Webhooks           []string               `json:"webhooks,omitempty"`
	Monitoring         Monitoring             `json:"monitoring"`
}
