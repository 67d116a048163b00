package domain

import "time"

// ScheduleStatus enumerates the lifecycle states of scheduled content.
type ScheduleStatus string

const (
	ScheduleDraft      ScheduleStatus = "draft"
	ScheduleScheduled  ScheduleStatus = "scheduled"
	SchedulePublishing ScheduleStatus = "publishing"
	SchedulePublished  ScheduleStatus = "published"
	ScheduleFailed     ScheduleStatus = "failed"
	ScheduleCancelled  ScheduleStatus = "cancelled"
)

// IsTerminal reports whether s is absorbing. Published and cancelled
// schedules never leave their state.
func (s ScheduleStatus) IsTerminal() bool {
	return s == SchedulePublished || s == ScheduleCancelled
}

// CanTransition reports whether the status machine allows from → to.
// Valid paths: scheduled → publishing → {published, failed},
// scheduled → cancelled, failed → scheduled (retry re-arm), draft → scheduled,
// draft → cancelled.
func CanTransition(from, to ScheduleStatus) bool {
	switch from {
	case ScheduleDraft:
		return to == ScheduleScheduled || to == ScheduleCancelled
	case ScheduleScheduled:
		return to == SchedulePublishing || to == ScheduleCancelled
	case SchedulePublishing:
		return to == SchedulePublished || to == ScheduleFailed
	case ScheduleFailed:
		return to == ScheduleScheduled
	default:
		return false
	}
}

// ContentType enumerates authored content kinds.
type ContentType string

const (
	ContentTypePost  ContentType = "post"
	ContentTypeStory ContentType = "story"
	ContentTypeVideo ContentType = "video"
	ContentTypeReel  ContentType = "reel"
)

// ScheduledContent is authored content queued for multi-platform publishing.
// It is owned by the scheduling engine; the publishing manager mutates only
// Status, RetryCount, NotificationsSent, and FailureReason.
type ScheduledContent struct {
	ID                string         `json:"id" db:"id"`
	BrandID           string         `json:"brand_id" db:"brand_id"`
	ContentID         *string        `json:"content_id,omitempty" db:"content_id"`
	Title             string         `json:"title" db:"title"`
	Content           string         `json:"content" db:"content"`
	Platforms         []Platform     `json:"platforms" db:"platforms"`
	ContentType       ContentType    `json:"content_type" db:"content_type"`
	ScheduledTime     time.Time      `json:"scheduled_time" db:"scheduled_time"`
	Timezone          string         `json:"timezone" db:"timezone"`
	Status            ScheduleStatus `json:"status" db:"status"`
	Priority          int            `json:"priority" db:"priority"`
	CampaignID        *string        `json:"campaign_id,omitempty" db:"campaign_id"`
	Tags              []string       `json:"tags,omitempty" db:"tags"`
	CreatedBy         string         `json:"created_by" db:"created_by"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
	RetryCount        int            `json:"retry_count" db:"retry_count"`
	MaxRetries        int            `json:"max_retries" db:"max_retries"`
	NotificationsSent []string       `json:"notifications_sent,omitempty" db:"notifications_sent"`
	FailureReason     *string        `json:"failure_reason,omitempty" db:"failure_reason"`
}

// ConflictType enumerates the scheduling conflict detectors.
type ConflictType string

const (
	ConflictTimeOverlap       ConflictType = "time-overlap"
	ConflictPlatformLimit     ConflictType = "platform-limit"
	ConflictContentSimilarity ConflictType = "content-similarity"
	ConflictCampaign          ConflictType = "campaign-conflict"
)

// ConflictSeverity grades how serious a conflict is.
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// ResolutionAction enumerates suggested conflict resolutions.
type ResolutionAction string

const (
	ResolveReschedule ResolutionAction = "reschedule"
	ResolveMerge      ResolutionAction = "merge"
	ResolveCancel     ResolutionAction = "cancel"
	ResolveIgnore     ResolutionAction = "ignore"
)

// ConflictResolution is the suggested way out of a conflict.
type ConflictResolution struct {
	Action  ResolutionAction `json:"action"`
	NewTime *time.Time       `json:"new_time,omitempty"`
	Reason  string           `json:"reason"`
}

// SchedulingConflict describes one rule violation between schedules.
type SchedulingConflict struct {
	Type                  ConflictType       `json:"type"`
	Severity              ConflictSeverity   `json:"severity"`
	Description           string             `json:"description"`
	ConflictingScheduleIDs []string          `json:"conflicting_schedule_ids"`
	SuggestedResolution   ConflictResolution `json:"suggested_resolution"`
	AutoResolvable        bool               `json:"auto_resolvable"`
}

// OptimalPostingTime is one ranked suggestion from the optimal-timing service.
type OptimalPostingTime struct {
	Platform Platform  `json:"platform"`
	Time     time.Time `json:"time"`
	Score    float64   `json:"score"`
	Reason   string    `json:"reason,omitempty"`
}

// CalendarViewType enumerates calendar spans.
type CalendarViewType string

const (
	CalendarDay   CalendarViewType = "day"
	CalendarWeek  CalendarViewType = "week"
	CalendarMonth CalendarViewType = "month"
	CalendarYear  CalendarViewType = "year"
)

// PlatformUsage summarizes limit consumption for a platform on a day.
type PlatformUsage struct {
	Platform    Platform `json:"platform"`
	DailyUsed   int      `json:"daily_used"`
	DailyLimit  int      `json:"daily_limit"`
	HourlyLimit int      `json:"hourly_limit"`
}

// CalendarView aggregates schedules, conflicts, optimal times, and limit
// usage over a view window.
type CalendarView struct {
	BrandID      string               `json:"brand_id"`
	ViewType     CalendarViewType     `json:"view_type"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	Timezone     string               `json:"timezone"`
	Schedules    []ScheduledContent   `json:"schedules"`
	Conflicts    []SchedulingConflict `json:"conflicts,omitempty"`
	OptimalTimes []OptimalPostingTime `json:"optimal_times,omitempty"`
	Usage        []PlatformUsage      `json:"usage,omitempty"`
}

// NotificationType enumerates schedule lifecycle notifications.
// For a single schedule, pre_publish orders before any terminal notification.
type NotificationType string

const (
	NotifyPrePublish NotificationType = "pre_publish"
	NotifyPublished  NotificationType = "published"
	NotifyFailed     NotificationType = "failed"
	NotifyCancelled  NotificationType = "cancelled"
	NotifyEdited     NotificationType = "edited"
)

// NotificationEnvelope is the payload handed to the notification service.
type NotificationEnvelope struct {
	ScheduleID string           `json:"schedule_id"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message,omitempty"`
	Recipients []string         `json:"recipients,omitempty"`
	SendAt     time.Time        `json:"send_at"`
}

// PublishErrorCode enumerates platform publisher error codes.
type PublishErrorCode string

const (
	PublishErrValidation  PublishErrorCode = "VALIDATION_FAILED" // terminal
	PublishErrRateLimited PublishErrorCode = "RATE_LIMITED"      // retry
	PublishErrUnavailable PublishErrorCode = "UNAVAILABLE"       // retry
	PublishErrAuth        PublishErrorCode = "AUTH_FAILED"       // terminal
	PublishErrUnknown     PublishErrorCode = "UNKNOWN"           // retry up to max
)

// Terminal reports whether the error code must never be retried.
func (c PublishErrorCode) Terminal() bool {
	return c == PublishErrValidation || c == PublishErrAuth
}

// PublishResult is the outcome of one platform publish attempt.
type PublishResult struct {
	Platform       Platform         `json:"platform"`
	Success        bool             `json:"success"`
	PlatformPostID string           `json:"platform_post_id,omitempty"`
	ErrorCode      PublishErrorCode `json:"error_code,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
}
