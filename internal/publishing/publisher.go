package publishing

import (
	"context"
	"time"

	"github.com/ignite/engage/internal/domain"
)

// PlatformPublisher is one platform integration. Implementations must be
// safe for concurrent use.
type PlatformPublisher interface {
	// Platform returns the platform this publisher serves.
	Platform() domain.Platform

	// ValidateContent checks platform constraints (length caps, required
	// fields) without side effects.
	ValidateContent(ctx context.Context, sched *domain.ScheduledContent) error

	// PublishContent performs the publish attempt. Errors are reported
	// through the result's ErrorCode, never through a Go error, so the
	// manager can distinguish terminal from transient failures.
	PublishContent(ctx context.Context, sched *domain.ScheduledContent) domain.PublishResult
}

// Repository is the persistence surface the dispatcher needs.
type Repository interface {
	// ClaimDue atomically moves up to limit schedules with status
	// 'scheduled' and scheduled_time <= now into 'publishing' and returns
	// them, ordered by scheduled_time then id. Concurrent dispatchers never
	// receive the same row.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledContent, error)

	// Update persists the schedule row.
	Update(ctx context.Context, sched *domain.ScheduledContent) error
}
