package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
)

// editLockWindow freezes edits shortly before publishing starts.
const editLockWindow = 5 * time.Minute

// ConflictError carries the detected conflicts that blocked an operation.
// It unwraps to ErrConflict.
type ConflictError struct {
	Conflicts []domain.SchedulingConflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d scheduling conflict(s), highest severity blocks this operation", len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotificationScheduler registers future notifications. The publishing
// manager owns delivery.
type NotificationScheduler interface {
	ScheduleNotification(ctx context.Context, envelope domain.NotificationEnvelope) (handle string, err error)
	SendNotification(ctx context.Context, envelope domain.NotificationEnvelope) error
}

// Service implements scheduling business logic. All public methods are safe
// for concurrent use if the repository is concurrency-safe.
type Service struct {
	cfg    config.SchedulingConfig
	pub    config.PublishingConfig
	repo   Repository
	brands BrandDirectory
	limits *Limits
	clock  clock.Clock
	notify NotificationScheduler // nil disables notifications
}

func NewService(cfg config.SchedulingConfig, pub config.PublishingConfig, repo Repository, brands BrandDirectory, clk clock.Clock) *Service {
	return &Service{
		cfg:    cfg,
		pub:    pub,
		repo:   repo,
		brands: brands,
		limits: NewLimits(cfg, repo),
		clock:  clk,
	}
}

// SetNotificationScheduler attaches the notification sink.
func (s *Service) SetNotificationScheduler(n NotificationScheduler) {
	s.notify = n
}

// ScheduleContent validates and persists a new schedule. High-severity
// conflicts block the operation unless the request allows conflicts.
func (s *Service) ScheduleContent(ctx context.Context, req Request) (*domain.ScheduledContent, error) {
	if err := s.validateRequest(ctx, &req); err != nil {
		return nil, err
	}

	sched := s.buildSchedule(req)
	conflicts, err := s.CheckConflicts(ctx, sched)
	if err != nil {
		return nil, err
	}
	if !req.AllowConflicts && hasHighSeverity(conflicts) {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	if err := s.repo.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	s.registerPrePublish(ctx, sched)

	logger.Info("content scheduled",
		"schedule_id", sched.ID, "brand_id", sched.BrandID,
		"scheduled_time", sched.ScheduledTime.Format(time.RFC3339),
		"platforms", fmt.Sprintf("%v", sched.Platforms),
		"conflicts", len(conflicts))
	return sched, nil
}

// BulkScheduleContent schedules many items, assigning times per the
// distribution strategy. Every input item lands in exactly one of the three
// result buckets.
func (s *Service) BulkScheduleContent(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if len(req.Items) == 0 {
		return &BulkResult{}, nil
	}

	times, err := s.distribute(req)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{}
	for i := range req.Items {
		item := req.Items[i]
		item.BrandID = req.BrandID
		item.ScheduledTime = times[i]
		item.AllowConflicts = req.AllowConflicts

		sched, err := s.ScheduleContent(ctx, item)
		switch {
		case err == nil:
			result.Scheduled = append(result.Scheduled, *sched)
		default:
			var ce *ConflictError
			if errors.As(err, &ce) {
				result.Conflicts = append(result.Conflicts, BulkItemConflict{
					Index: i, Title: item.Title, Conflicts: ce.Conflicts,
				})
			} else {
				result.Failed = append(result.Failed, BulkItemFailure{
					Index: i, Title: item.Title, Error: err.Error(),
				})
			}
		}
	}
	return result, nil
}

// distribute computes per-item scheduled times for the chosen strategy.
func (s *Service) distribute(req BulkRequest) ([]time.Time, error) {
	n := len(req.Items)
	times := make([]time.Time, n)

	switch req.Strategy {
	case DistributeEven:
		span := req.RangeEnd.Sub(req.RangeStart)
		for i := 0; i < n; i++ {
			times[i] = req.RangeStart.Add(time.Duration(i) * span / time.Duration(n))
		}
	case DistributeOptimal:
		platforms := map[domain.Platform]bool{}
		for _, item := range req.Items {
			for _, p := range item.Platforms {
				platforms[p] = true
			}
		}
		var all []domain.Platform
		for _, p := range domain.AllPlatforms {
			if platforms[p] {
				all = append(all, p)
			}
		}
		suggestions, err := s.SuggestOptimalTimes(all, domain.ContentTypePost, req.RangeStart, req.RangeEnd, n)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if i < len(suggestions) {
				times[i] = suggestions[i].Time
			} else {
				times[i] = req.RangeStart.Add(time.Duration(i) * time.Hour)
			}
		}
	case DistributeCustom:
		for i, item := range req.Items {
			times[i] = item.ScheduledTime
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadStrategy, req.Strategy)
	}
	return times, nil
}

// UpdateScheduledContent applies a partial update. Terminal, in-flight, and
// edit-locked schedules reject updates; a changed time re-runs conflict
// detection.
func (s *Service) UpdateScheduledContent(ctx context.Context, id string, upd Update) (*domain.ScheduledContent, error) {
	sched, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.CanEditSchedule(sched); err != nil {
		return nil, err
	}

	timeChanged := false
	if upd.Title != nil {
		sched.Title = *upd.Title
	}
	if upd.Content != nil {
		sched.Content = *upd.Content
	}
	if len(upd.Platforms) > 0 {
		sched.Platforms = upd.Platforms
	}
	if upd.ScheduledTime != nil && !upd.ScheduledTime.Equal(sched.ScheduledTime) {
		if !upd.ScheduledTime.After(s.clock.Now()) {
			return nil, ErrTimeInPast
		}
		sched.ScheduledTime = *upd.ScheduledTime
		timeChanged = true
	}
	if upd.Timezone != nil {
		sched.Timezone = *upd.Timezone
	}
	if upd.Priority != nil {
		sched.Priority = *upd.Priority
	}
	if len(upd.Tags) > 0 {
		sched.Tags = upd.Tags
	}
	if upd.ContentType != nil {
		sched.ContentType = *upd.ContentType
	}

	if timeChanged {
		conflicts, err := s.CheckConflicts(ctx, sched)
		if err != nil {
			return nil, err
		}
		if hasHighSeverity(conflicts) {
			return nil, &ConflictError{Conflicts: conflicts}
		}
	}

	sched.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, sched); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	s.sendNotification(ctx, sched, domain.NotifyEdited, "schedule updated")
	return sched, nil
}

// CancelScheduledContent moves a schedule to cancelled.
func (s *Service) CancelScheduledContent(ctx context.Context, id, reason string) error {
	sched, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.CanCancelSchedule(sched); err != nil {
		return err
	}

	sched.Status = domain.ScheduleCancelled
	sched.FailureReason = &reason
	sched.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, sched); err != nil {
		return fmt.Errorf("cancel schedule: %w", err)
	}
	s.sendNotification(ctx, sched, domain.NotifyCancelled, reason)

	logger.Info("schedule cancelled", "schedule_id", id, "reason", reason)
	return nil
}

// CanEditSchedule reports whether a schedule accepts edits right now.
func (s *Service) CanEditSchedule(sched *domain.ScheduledContent) error {
	if sched.Status == domain.SchedulePublishing || sched.Status == domain.SchedulePublished {
		return fmt.Errorf("%w: status %s", ErrInvalidState, sched.Status)
	}
	if sched.Status == domain.ScheduleCancelled {
		return fmt.Errorf("%w: status %s", ErrInvalidState, sched.Status)
	}
	if sched.ScheduledTime.Sub(s.clock.Now()) < editLockWindow {
		return fmt.Errorf("%w: less than %s before publish", ErrEditLocked, editLockWindow)
	}
	return nil
}

// CanCancelSchedule reports whether a schedule may be cancelled.
func (s *Service) CanCancelSchedule(sched *domain.ScheduledContent) error {
	switch sched.Status {
	case domain.SchedulePublishing, domain.SchedulePublished, domain.ScheduleCancelled:
		return fmt.Errorf("%w: status %s", ErrInvalidState, sched.Status)
	}
	return nil
}

// GetCalendarView aggregates a brand's schedules over the view window,
// computed in the given time zone.
func (s *Service) GetCalendarView(ctx context.Context, brandID string, view domain.CalendarViewType, start time.Time, tz string) (*domain.CalendarView, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	start = start.In(loc)

	var end time.Time
	switch view {
	case domain.CalendarDay:
		end = start.AddDate(0, 0, 1)
	case domain.CalendarWeek:
		end = start.AddDate(0, 0, 7)
	case domain.CalendarMonth:
		end = start.AddDate(0, 1, 0)
	case domain.CalendarYear:
		end = start.AddDate(1, 0, 0)
	default:
		return nil, fmt.Errorf("unknown calendar view %q", view)
	}

	schedules, err := s.repo.ListByTimeRange(ctx, brandID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	// Pairwise conflicts among the visible schedules only.
	var conflicts []domain.SchedulingConflict
	for i := range schedules {
		others := append(append([]domain.ScheduledContent{}, schedules[:i]...), schedules[i+1:]...)
		conflicts = append(conflicts, detectTimeOverlap(&schedules[i], others)...)
		conflicts = append(conflicts, detectCampaignConflicts(&schedules[i], others)...)
	}

	optimal, err := s.SuggestOptimalTimes(domain.AllPlatforms, domain.ContentTypePost, start, minTime(end, start.AddDate(0, 0, 7)), 5)
	if err != nil {
		return nil, err
	}

	usage := make([]domain.PlatformUsage, 0, len(domain.AllPlatforms))
	dayStart := start.Truncate(24 * time.Hour)
	for _, platform := range domain.AllPlatforms {
		limit := s.cfg.PlatformLimits[platform]
		used, err := s.repo.CountByPlatform(ctx, brandID, platform, dayStart, dayStart.Add(24*time.Hour))
		if err != nil {
			return nil, fmt.Errorf("count %s usage: %w", platform, err)
		}
		usage = append(usage, domain.PlatformUsage{
			Platform:    platform,
			DailyUsed:   used,
			DailyLimit:  limit.DailyLimit,
			HourlyLimit: limit.HourlyLimit,
		})
	}

	return &domain.CalendarView{
		BrandID:      brandID,
		ViewType:     view,
		StartDate:    start,
		EndDate:      end,
		Timezone:     tz,
		Schedules:    schedules,
		Conflicts:    conflicts,
		OptimalTimes: optimal,
		Usage:        usage,
	}, nil
}

func (s *Service) validateRequest(ctx context.Context, req *Request) error {
	known, err := s.brands.BrandExists(ctx, req.BrandID)
	if err != nil {
		return fmt.Errorf("check brand: %w", err)
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrBrandUnknown, req.BrandID)
	}
	if req.Content == "" {
		return ErrEmptyContent
	}
	if len(req.Platforms) == 0 {
		return ErrNoPlatforms
	}
	for _, p := range req.Platforms {
		if !p.Valid() {
			return fmt.Errorf("%w: %s", ErrBadPlatform, p)
		}
	}

	now := s.clock.Now()
	if !req.ScheduledTime.After(now) {
		return ErrTimeInPast
	}
	lead := time.Duration(s.cfg.MinLeadTimeMinutes) * time.Minute
	if req.ScheduledTime.Sub(now) < lead {
		return fmt.Errorf("%w: need %s of lead time", ErrLeadTooShort, lead)
	}
	return nil
}

func (s *Service) buildSchedule(req Request) *domain.ScheduledContent {
	now := s.clock.Now()
	maxRetries := s.cfg.DefaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return &domain.ScheduledContent{
		ID:            uuid.New().String(),
		BrandID:       req.BrandID,
		ContentID:     req.ContentID,
		Title:         req.Title,
		Content:       req.Content,
		Platforms:     req.Platforms,
		ContentType:   req.ContentType,
		ScheduledTime: req.ScheduledTime,
		Timezone:      tz,
		Status:        domain.ScheduleScheduled,
		Priority:      req.Priority,
		CampaignID:    req.CampaignID,
		Tags:          req.Tags,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		MaxRetries:    maxRetries,
	}
}

// registerPrePublish schedules the heads-up notification when configured and
// the slot is still in the future.
func (s *Service) registerPrePublish(ctx context.Context, sched *domain.ScheduledContent) {
	if s.notify == nil || s.pub.PrePublishMinutes <= 0 {
		return
	}
	sendAt := sched.ScheduledTime.Add(-time.Duration(s.pub.PrePublishMinutes) * time.Minute)
	if !sendAt.After(s.clock.Now()) {
		return
	}
	_, err := s.notify.ScheduleNotification(ctx, domain.NotificationEnvelope{
		ScheduleID: sched.ID,
		Type:       domain.NotifyPrePublish,
		Title:      fmt.Sprintf("%q publishes soon", sched.Title),
		Recipients: []string{sched.CreatedBy},
		SendAt:     sendAt,
	})
	if err != nil {
		logger.Warn("pre-publish notification registration failed",
			"schedule_id", sched.ID, "error", err.Error())
	}
}

func (s *Service) sendNotification(ctx context.Context, sched *domain.ScheduledContent, typ domain.NotificationType, message string) {
	if s.notify == nil {
		return
	}
	err := s.notify.SendNotification(ctx, domain.NotificationEnvelope{
		ScheduleID: sched.ID,
		Type:       typ,
		Title:      sched.Title,
		Message:    message,
		Recipients: []string{sched.CreatedBy},
		SendAt:     s.clock.Now(),
	})
	if err != nil {
		logger.Warn("notification send failed",
			"schedule_id", sched.ID, "type", string(typ), "error", err.Error())
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
