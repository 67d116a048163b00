package scheduling

import (
	"context"
	"time"

	"github.com/ignite/engage/internal/domain"
)

// Repository defines the data access contract for scheduled content.
// Implementations must be safe for concurrent use and must return
// deterministic ordering (scheduled_time ASC, then id ASC) from every
// listing method.
type Repository interface {
	// Create inserts a new schedule.
	Create(ctx context.Context, s *domain.ScheduledContent) error

	// Get returns a single schedule. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.ScheduledContent, error)

	// Update persists the full schedule row.
	Update(ctx context.Context, s *domain.ScheduledContent) error

	// Delete removes a schedule permanently.
	Delete(ctx context.Context, id string) error

	// ListByBrand returns schedules for a brand matching the filter.
	ListByBrand(ctx context.Context, brandID string, f ListFilter) ([]domain.ScheduledContent, error)

	// ListByTimeRange returns a brand's schedules with scheduled_time in
	// [from, to).
	ListByTimeRange(ctx context.Context, brandID string, from, to time.Time) ([]domain.ScheduledContent, error)

	// ListConflictCandidates returns the brand's non-terminal schedules
	// within the widest conflict horizon around t (±7 days), excluding
	// excludeID when non-empty.
	ListConflictCandidates(ctx context.Context, brandID string, t time.Time, excludeID string) ([]domain.ScheduledContent, error)

	// CountByPlatform returns the number of non-cancelled schedules for a
	// (brand, platform) pair with scheduled_time in [from, to).
	CountByPlatform(ctx context.Context, brandID string, platform domain.Platform, from, to time.Time) (int, error)
}

// ListFilter controls filtering for schedule listings.
type ListFilter struct {
	Status     domain.ScheduleStatus
	Platform   domain.Platform
	CampaignID string
	Limit      int
	Offset     int
}

// BrandDirectory answers whether a brand exists. The brand service owns the
// data; scheduling only validates references.
type BrandDirectory interface {
	BrandExists(ctx context.Context, brandID string) (bool, error)
}
