package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
)

// Limits enforces per-platform daily and hourly caps and minimum posting
// intervals, counting against the scheduling repository.
type Limits struct {
	cfg  config.SchedulingConfig
	repo Repository
}

func NewLimits(cfg config.SchedulingConfig, repo Repository) *Limits {
	return &Limits{cfg: cfg, repo: repo}
}

// Check reports whether a post at t fits the platform's limits. When it does
// not, nextAvailable is the earliest compliant slot and reason says which
// cap was hit.
func (l *Limits) Check(ctx context.Context, brandID string, platform domain.Platform, t time.Time) (ok bool, nextAvailable time.Time, reason string, err error) {
	limit, found := l.cfg.PlatformLimits[platform]
	if !found {
		return true, time.Time{}, "", nil
	}

	dayStart := t.Truncate(24 * time.Hour)
	daily, err := l.repo.CountByPlatform(ctx, brandID, platform, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return false, time.Time{}, "", fmt.Errorf("count daily: %w", err)
	}
	if limit.DailyLimit > 0 && daily >= limit.DailyLimit {
		return false, dayStart.Add(24 * time.Hour), fmt.Sprintf("daily limit %d reached", limit.DailyLimit), nil
	}

	hourStart := t.Truncate(time.Hour)
	hourly, err := l.repo.CountByPlatform(ctx, brandID, platform, hourStart, hourStart.Add(time.Hour))
	if err != nil {
		return false, time.Time{}, "", fmt.Errorf("count hourly: %w", err)
	}
	if limit.HourlyLimit > 0 && hourly >= limit.HourlyLimit {
		return false, hourStart.Add(time.Hour), fmt.Sprintf("hourly limit %d reached", limit.HourlyLimit), nil
	}

	if limit.MinIntervalMinutes > 0 {
		interval := time.Duration(limit.MinIntervalMinutes) * time.Minute
		nearby, err := l.repo.CountByPlatform(ctx, brandID, platform, t.Add(-interval), t.Add(interval))
		if err != nil {
			return false, time.Time{}, "", fmt.Errorf("count interval: %w", err)
		}
		if nearby > 0 {
			return false, t.Add(interval), fmt.Sprintf("minimum interval %s violated", interval), nil
		}
	}

	return true, time.Time{}, "", nil
}

// NextAvailable walks forward in minimum-interval steps until Check passes.
// Bounded to 7 days to guarantee termination.
func (l *Limits) NextAvailable(ctx context.Context, brandID string, platform domain.Platform, from time.Time) (time.Time, error) {
	t := from
	deadline := from.Add(7 * 24 * time.Hour)
	for t.Before(deadline) {
		ok, next, _, err := l.Check(ctx, brandID, platform, t)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return t, nil
		}
		if !next.After(t) {
			next = t.Add(time.Hour)
		}
		t = next
	}
	return time.Time{}, fmt.Errorf("%w: no slot within 7 days for %s", ErrLimitExceeded, platform)
}
