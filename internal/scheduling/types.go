package scheduling

import (
	"time"

	"github.com/ignite/engage/internal/domain"
)

// Request is the input to ScheduleContent.
type Request struct {
	BrandID        string               `json:"brand_id"`
	ContentID      *string              `json:"content_id,omitempty"`
	Title          string               `json:"title"`
	Content        string               `json:"content"`
	Platforms      []domain.Platform    `json:"platforms"`
	ContentType    domain.ContentType   `json:"content_type"`
	ScheduledTime  time.Time            `json:"scheduled_time"`
	Timezone       string               `json:"timezone"`
	Priority       int                  `json:"priority"`
	CampaignID     *string              `json:"campaign_id,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	CreatedBy      string               `json:"created_by"`
	MaxRetries     *int                 `json:"max_retries,omitempty"`
	AllowConflicts bool                 `json:"allow_conflicts"`
}

// DistributionStrategy selects how bulk requests are spread over the range.
type DistributionStrategy string

const (
	DistributeEven    DistributionStrategy = "even"
	DistributeOptimal DistributionStrategy = "optimal"
	DistributeCustom  DistributionStrategy = "custom"
)

// BulkRequest schedules many items in one call.
type BulkRequest struct {
	BrandID              string               `json:"brand_id"`
	Items                []Request            `json:"items"`
	Strategy             DistributionStrategy `json:"distribution_strategy"`
	RangeStart           time.Time            `json:"range_start"`
	RangeEnd             time.Time            `json:"range_end"`
	AllowConflicts       bool                 `json:"allow_conflicts"`
}

// BulkItemFailure records one item that could not be scheduled.
type BulkItemFailure struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// BulkItemConflict records one item rejected for conflicts.
type BulkItemConflict struct {
	Index     int                          `json:"index"`
	Title     string                       `json:"title"`
	Conflicts []domain.SchedulingConflict  `json:"conflicts"`
}

// BulkResult partitions the input: every item lands in exactly one bucket,
// so len(Scheduled) + len(Conflicts) + len(Failed) equals the input size.
type BulkResult struct {
	Scheduled []domain.ScheduledContent `json:"scheduled"`
	Conflicts []BulkItemConflict        `json:"conflicts,omitempty"`
	Failed    []BulkItemFailure         `json:"failed,omitempty"`
}

// Update carries the mutable fields of a schedule. Nil fields are left
// unchanged.
type Update struct {
	Title         *string             `json:"title,omitempty"`
	Content       *string             `json:"content,omitempty"`
	Platforms     []domain.Platform   `json:"platforms,omitempty"`
	ScheduledTime *time.Time          `json:"scheduled_time,omitempty"`
	Timezone      *string             `json:"timezone,omitempty"`
	Priority      *int                `json:"priority,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	ContentType   *domain.ContentType `json:"content_type,omitempty"`
}
