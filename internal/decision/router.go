package decision

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
)

// Confidence blend weights over the analysis inputs.
const (
	sentimentConfW = 0.3
	intentConfW    = 0.4
	priorityConfW  = 0.3
)

// Router turns analysis results into a routing decision.
type Router struct {
	cfg   config.RoutingConfig
	clock clock.Clock
}

func NewRouter(cfg config.RoutingConfig, clk clock.Clock) *Router {
	return &Router{cfg: cfg, clock: clk}
}

// Route decides how the event is handled: automatic response, suggested
// response awaiting approval, or human review.
func (r *Router) Route(event *domain.SocialEvent, sent *domain.SentimentResult, intent *domain.IntentResult, priority *domain.PriorityScore, brand *domain.BrandContext) domain.RoutingDecision {
	confidence := sentimentConfW*sent.Overall.Confidence +
		intentConfW*intent.Primary.Confidence +
		priorityConfW*priority.Metadata.Confidence

	var reasoning []string
	reasoning = append(reasoning, fmt.Sprintf("blended confidence %.2f", confidence))

	// Ordered override rules rewrite the confidence when their guard holds.
	for _, ov := range r.cfg.ConfidenceOverrides {
		if evalCondition(ov.When, event, intent, priority) {
			confidence = ov.NewConfidence
			reasoning = append(reasoning, "override: "+ov.Name)
		}
	}

	if reason, forced := r.alwaysHuman(intent, priority); forced {
		return r.humanReview(event, intent, priority, confidence,
			append(reasoning, reason))
	}

	if containsString(r.cfg.NeverAutoIntents, string(intent.Primary.Intent)) {
		reasoning = append(reasoning, "never-auto intent "+string(intent.Primary.Intent))
		if confidence >= r.cfg.ConfidenceThresholds.Suggestion {
			return r.suggestion(event, intent, priority, confidence, reasoning)
		}
		return r.humanReview(event, intent, priority, confidence, reasoning)
	}

	switch {
	case confidence >= r.cfg.ConfidenceThresholds.AutoResponse:
		return r.autoResponse(event, intent, priority, confidence,
			append(reasoning, "confidence clears auto-response threshold"))
	case confidence >= r.cfg.ConfidenceThresholds.Suggestion:
		return r.suggestion(event, intent, priority, confidence,
			append(reasoning, "confidence clears suggestion threshold"))
	default:
		return r.humanReview(event, intent, priority, confidence,
			append(reasoning, "confidence below suggestion threshold"))
	}
}

// alwaysHuman checks the mandatory-review rules.
func (r *Router) alwaysHuman(intent *domain.IntentResult, priority *domain.PriorityScore) (string, bool) {
	if containsString(r.cfg.AlwaysHumanIntents, string(intent.Primary.Intent)) {
		return "always-human intent " + string(intent.Primary.Intent), true
	}
	if containsString(r.cfg.AlwaysHumanUrgencies, string(intent.Urgency.Level)) {
		return "always-human urgency " + string(intent.Urgency.Level), true
	}
	if r.cfg.AlwaysHumanPriority > 0 && priority.Overall >= r.cfg.AlwaysHumanPriority {
		return fmt.Sprintf("priority %.1f at or above human threshold", priority.Overall), true
	}
	return "", false
}

func (r *Router) autoResponse(event *domain.SocialEvent, intent *domain.IntentResult, priority *domain.PriorityScore, confidence float64, reasoning []string) domain.RoutingDecision {
	actions := []domain.DecisionAction{
		{
			Type:       domain.ActionRespond,
			Priority:   actionPriority(priority, intent),
			Confidence: confidence,
			Automated:  true,
			Parameters: map[string]string{
				"template": templateFor(intent.Primary.Intent),
				"intent":   string(intent.Primary.Intent),
			},
		},
		{
			Type:       domain.ActionMonitor,
			Priority:   3,
			Confidence: confidence,
			Automated:  true,
		},
	}
	return r.finish(domain.RouteAutoResponse, event, intent, priority, confidence, reasoning, actions, domain.Escalation{})
}

func (r *Router) suggestion(event *domain.SocialEvent, intent *domain.IntentResult, priority *domain.PriorityScore, confidence float64, reasoning []string) domain.RoutingDecision {
	actions := []domain.DecisionAction{
		{
			Type:             domain.ActionSuggest,
			Priority:         actionPriority(priority, intent),
			Confidence:       confidence,
			RequiresApproval: true,
			Parameters: map[string]string{
				"template": templateFor(intent.Primary.Intent),
				"variants": "3",
				"intent":   string(intent.Primary.Intent),
			},
		},
	}
	return r.finish(domain.RouteSuggestion, event, intent, priority, confidence, reasoning, actions, domain.Escalation{})
}

func (r *Router) humanReview(event *domain.SocialEvent, intent *domain.IntentResult, priority *domain.PriorityScore, confidence float64, reasoning []string) domain.RoutingDecision {
	level := "standard"
	if priority.BusinessRules.AutoEscalation || intent.Urgency.Level == domain.UrgencyCritical {
		level = "urgent"
	}
	actions := []domain.DecisionAction{
		{
			Type:             domain.ActionEscalate,
			Priority:         actionPriority(priority, intent),
			Confidence:       confidence,
			RequiresApproval: true,
			Parameters: map[string]string{
				"intent":      string(intent.Primary.Intent),
				"urgency":     string(intent.Urgency.Level),
				"next_action": firstNextAction(intent),
			},
		},
	}
	esc := domain.Escalation{Required: true, Level: level, Reason: lastString(reasoning)}
	return r.finish(domain.RouteHumanReview, event, intent, priority, confidence, reasoning, actions, esc)
}

// finish fills the queue assignment and monitoring block shared by all routes.
func (r *Router) finish(route domain.Route, event *domain.SocialEvent, intent *domain.IntentResult, priority *domain.PriorityScore, confidence float64, reasoning []string, actions []domain.DecisionAction, esc domain.Escalation) domain.RoutingDecision {
	qp := queuePriority(priority.Overall, intent.Urgency.Level)
	wait := time.Duration(r.cfg.BaseWaitMinutes) * time.Minute
	wait = time.Duration(float64(wait) * float64(11-qp) / 10)

	followUp := r.clock.Now().Add(followUpDelay(intent.Urgency.Level))
	followUpRequired := route != domain.RouteAutoResponse ||
		intent.Urgency.Level == domain.UrgencyHigh ||
		intent.Urgency.Level == domain.UrgencyCritical
	monitoring := domain.Monitoring{
		TrackingID:       uuid.New().String(),
		KPIs:             kpisFor(route),
		FollowUpRequired: followUpRequired,
		FollowUpDate:     &followUp,
	}

	return domain.RoutingDecision{
		Route:      route,
		Confidence: confidence,
		Reasoning:  reasoning,
		Actions:    actions,
		Queue: domain.QueueAssignment{
			Name:              queueName(route, intent.Urgency.Level),
			Priority:          qp,
			EstimatedWaitTime: wait,
		},
		Escalation: esc,
		Monitoring: monitoring,
	}
}

// queuePriority maps the overall score to [1,10] with an urgency floor.
func queuePriority(overall float64, level domain.UrgencyLevel) int {
	p := int(math.Ceil(overall / 10))
	if p < 1 {
		p = 1
	}
	if p > 10 {
		p = 10
	}
	floor := map[domain.UrgencyLevel]int{
		domain.UrgencyCritical: 9,
		domain.UrgencyHigh:     7,
		domain.UrgencyMedium:   4,
		domain.UrgencyLow:      2,
		domain.UrgencyMinimal:  1,
	}[level]
	if p < floor {
		p = floor
	}
	return p
}

func queueName(route domain.Route, level domain.UrgencyLevel) string {
	switch route {
	case domain.RouteHumanReview:
		if level == domain.UrgencyCritical {
			return "review-urgent"
		}
		return "review"
	case domain.RouteSuggestion:
		return "approval"
	default:
		return "automated"
	}
}

func followUpDelay(level domain.UrgencyLevel) time.Duration {
	switch level {
	case domain.UrgencyCritical:
		return 30 * time.Minute
	case domain.UrgencyHigh:
		return 2 * time.Hour
	case domain.UrgencyMedium:
		return 8 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func kpisFor(route domain.Route) []string {
	switch route {
	case domain.RouteAutoResponse:
		return []string{"response_time", "author_reaction"}
	case domain.RouteSuggestion:
		return []string{"approval_time", "response_time"}
	default:
		return []string{"resolution_time", "escalation_outcome"}
	}
}

func templateFor(intent domain.Intent) string {
	switch intent {
	case domain.IntentPraise:
		return "thank_you"
	case domain.IntentQuestion:
		return "answer"
	case domain.IntentPurchase:
		return "purchase_info"
	case domain.IntentComplaint, domain.IntentRefund:
		return "apology"
	default:
		return "acknowledge"
	}
}

func actionPriority(priority *domain.PriorityScore, intent *domain.IntentResult) int {
	return queuePriority(priority.Overall, intent.Urgency.Level)
}

func firstNextAction(intent *domain.IntentResult) string {
	if len(intent.NextActions) == 0 {
		return ""
	}
	return intent.NextActions[0].Action
}

// evalCondition evaluates a structured override guard against the event and
// its analysis. Unknown fields or operators evaluate to false.
func evalCondition(c config.OverrideCondition, event *domain.SocialEvent, intent *domain.IntentResult, priority *domain.PriorityScore) bool {
	if len(c.All) > 0 {
		for _, sub := range c.All {
			if !evalCondition(sub, event, intent, priority) {
				return false
			}
		}
		return true
	}
	if len(c.Any) > 0 {
		for _, sub := range c.Any {
			if evalCondition(sub, event, intent, priority) {
				return true
			}
		}
		return false
	}
	if c.Not != nil {
		return !evalCondition(*c.Not, event, intent, priority)
	}

	switch c.Field {
	case "platform":
		return compareString(string(event.Platform), c)
	case "intent":
		return compareString(string(intent.Primary.Intent), c)
	case "urgency":
		return compareString(string(intent.Urgency.Level), c)
	case "verified":
		return compareString(strconv.FormatBool(event.Author.Verified), c)
	case "priority":
		return compareNumber(priority.Overall, c)
	case "follower_count":
		return compareNumber(float64(event.Author.FollowerCount), c)
	case "engagement_rate":
		return compareNumber(event.Engagement.EngagementRate, c)
	default:
		return false
	}
}

func compareString(got string, c config.OverrideCondition) bool {
	switch c.Op {
	case "eq":
		return got == c.Value
	case "ne":
		return got != c.Value
	case "in":
		return containsString(c.Values, got)
	default:
		return false
	}
}

func compareNumber(got float64, c config.OverrideCondition) bool {
	want, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return false
	}
	switch c.Op {
	case "eq":
		return got == want
	case "ne":
		return got != want
	case "lt":
		return got < want
	case "le":
		return got <= want
	case "gt":
		return got > want
	case "ge":
		return got >= want
	default:
		return false
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func lastString(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
