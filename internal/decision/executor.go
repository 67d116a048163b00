package decision

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
	"github.com/ignite/engage/internal/response"
)

// ResponsePublisher posts a reply on the event's platform.
type ResponsePublisher interface {
	PublishResponse(ctx context.Context, event *domain.SocialEvent, text string) (postID string, err error)
}

// Notifier delivers internal alerts (escalations, monitors) to operators.
type Notifier interface {
	Notify(ctx context.Context, subject, detail string) error
}

// Executor dispatches the actions of a routing decision. Only auto-response
// decisions execute directly; suggestions require prior approval.
type Executor struct {
	renderer  *response.Renderer
	publisher ResponsePublisher
	notifier  Notifier
	clock     clock.Clock
}

func NewExecutor(renderer *response.Renderer, publisher ResponsePublisher, notifier Notifier, clk clock.Clock) *Executor {
	return &Executor{
		renderer:  renderer,
		publisher: publisher,
		notifier:  notifier,
		clock:     clk,
	}
}

// Execute runs every action in the decision. For suggestion routes, approved
// must be true or every action is recorded as skipped.
func (e *Executor) Execute(ctx context.Context, routing *domain.RoutingDecision, event *domain.SocialEvent, brand *domain.BrandContext, approved bool) []domain.ExecutionResult {
	if routing.Route == domain.RouteHumanReview ||
		(routing.Route == domain.RouteSuggestion && !approved) {
		return e.skipAll(routing, "route requires human involvement")
	}

	results := make([]domain.ExecutionResult, 0, len(routing.Actions))
	for _, action := range routing.Actions {
		results = append(results, e.executeAction(ctx, action, event, brand))
	}
	return results
}

func (e *Executor) executeAction(ctx context.Context, action domain.DecisionAction, event *domain.SocialEvent, brand *domain.BrandContext) domain.ExecutionResult {
	started := e.clock.Now()
	result := domain.ExecutionResult{Action: action.Type, StartedAt: started}

	var err error
	switch action.Type {
	case domain.ActionRespond, domain.ActionSuggest:
		err = e.respond(ctx, action, event, brand)
	case domain.ActionEscalate:
		err = e.notifier.Notify(ctx,
			fmt.Sprintf("escalation for event %s", event.ID),
			action.Parameters["next_action"])
	case domain.ActionMonitor, domain.ActionNotify:
		err = e.notifier.Notify(ctx,
			fmt.Sprintf("monitor event %s", event.ID),
			string(event.Platform))
	default:
		result.Status = domain.ExecutionSkipped
		result.Detail = "unknown action type"
		result.Duration = e.clock.Now().Sub(started)
		return result
	}

	result.Duration = e.clock.Now().Sub(started)
	if err != nil {
		result.Status = domain.ExecutionFailed
		result.Detail = err.Error()
		result.Terminal = errors.Is(err, ErrTerminalAction)
		logger.Warn("action execution failed",
			"event_id", event.ID, "action", string(action.Type),
			"terminal", result.Terminal, "error", err.Error())
		return result
	}
	result.Status = domain.ExecutionSuccess
	return result
}

// respond renders the templated reply and publishes it. Template and
// rendering problems are terminal; publisher failures stay retryable.
func (e *Executor) respond(ctx context.Context, action domain.DecisionAction, event *domain.SocialEvent, brand *domain.BrandContext) error {
	template := action.Parameters["template"]
	text, err := e.renderer.Render(template, event, brand)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTerminalAction, err)
	}
	if text == "" {
		return fmt.Errorf("%w: empty rendered response", ErrTerminalAction)
	}

	postID, err := e.publisher.PublishResponse(ctx, event, text)
	if err != nil {
		return fmt.Errorf("publish response: %w", err)
	}
	logger.Info("response published",
		"event_id", event.ID, "platform", string(event.Platform),
		"post_id", postID, "template", template)
	return nil
}

func (e *Executor) skipAll(routing *domain.RoutingDecision, reason string) []domain.ExecutionResult {
	now := e.clock.Now()
	results := make([]domain.ExecutionResult, 0, len(routing.Actions))
	for _, action := range routing.Actions {
		results = append(results, domain.ExecutionResult{
			Action:    action.Type,
			Status:    domain.ExecutionSkipped,
			Detail:    reason,
			StartedAt: now,
		})
	}
	return results
}
