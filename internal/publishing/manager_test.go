package publishing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
)

type memPubRepo struct {
	mu    sync.Mutex
	items map[string]domain.ScheduledContent
}

func newMemPubRepo() *memPubRepo {
	return &memPubRepo{items: map[string]domain.ScheduledContent{}}
}

func (r *memPubRepo) put(s domain.ScheduledContent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = s
}

func (r *memPubRepo) get(id string) domain.ScheduledContent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

func (r *memPubRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]domain.ScheduledContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []domain.ScheduledContent
	for _, s := range r.items {
		if s.Status == domain.ScheduleScheduled && !s.ScheduledTime.After(now) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].ScheduledTime.Equal(due[j].ScheduledTime) {
			return due[i].ScheduledTime.Before(due[j].ScheduledTime)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].Status = domain.SchedulePublishing
		r.items[due[i].ID] = due[i]
	}
	return due, nil
}

func (r *memPubRepo) Update(_ context.Context, s *domain.ScheduledContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = *s
	return nil
}

// scriptedPublisher returns canned results in order, repeating the last one.
type scriptedPublisher struct {
	platform domain.Platform
	results  []domain.PublishResult
	calls    int
}

func (p *scriptedPublisher) Platform() domain.Platform { return p.platform }

func (p *scriptedPublisher) ValidateContent(context.Context, *domain.ScheduledContent) error {
	return nil
}

func (p *scriptedPublisher) PublishContent(context.Context, *domain.ScheduledContent) domain.PublishResult {
	i := p.calls
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	p.calls++
	r := p.results[i]
	r.Platform = p.platform
	return r
}

type countingNotifier struct {
	mu   sync.Mutex
	sent []domain.NotificationEnvelope
}

func (n *countingNotifier) Send(_ context.Context, e domain.NotificationEnvelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, e)
	return nil
}

func (n *countingNotifier) count(typ domain.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	var c int
	for _, e := range n.sent {
		if e.Type == typ {
			c++
		}
	}
	return c
}

func testPubConfig() config.PublishingConfig {
	return config.PublishingConfig{
		TickSeconds:       30,
		DuePageSize:       50,
		RetryBaseSeconds:  60,
		RetryCapSeconds:   3600,
		PrePublishMinutes: 15,
	}
}

func pubNow() time.Time {
	return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
}

func dueSchedule(id string, platforms ...domain.Platform) domain.ScheduledContent {
	return domain.ScheduledContent{
		ID:            id,
		BrandID:       "brand-1",
		Title:         "Launch post",
		Content:       "We are live.",
		Platforms:     platforms,
		ContentType:   domain.ContentTypePost,
		ScheduledTime: pubNow().Add(-time.Minute),
		Status:        domain.ScheduleScheduled,
		CreatedBy:     "ops@example.com",
		MaxRetries:    3,
	}
}

func newTestManager(repo *memPubRepo, notifier *countingNotifier, clk *clock.Fixed, pubs ...PlatformPublisher) *Manager {
	queue := NewNotificationQueue(notifier, clk)
	m := NewManager(testPubConfig(), repo, queue, clk)
	for _, p := range pubs {
		m.RegisterPublisher(p)
	}
	return m
}

func TestManager_PublishesDueSchedule(t *testing.T) {
	repo := newMemPubRepo()
	notifier := &countingNotifier{}
	clk := &clock.Fixed{T: pubNow()}
	repo.put(dueSchedule("s1", domain.PlatformInstagram))

	m := newTestManager(repo, notifier, clk, &scriptedPublisher{
		platform: domain.PlatformInstagram,
		results:  []domain.PublishResult{{Success: true, PlatformPostID: "ig-1"}},
	})
	m.RunOnce(context.Background())

	got := repo.get("s1")
	if got.Status != domain.SchedulePublished {
		t.Fatalf("status = %s, want published", got.Status)
	}
	if got.FailureReason != nil {
		t.Errorf("failureReason = %v, want nil", *got.FailureReason)
	}
	if notifier.count(domain.NotifyPublished) != 1 {
		t.Errorf("published notifications = %d, want 1", notifier.count(domain.NotifyPublished))
	}
}

func TestManager_SkipsFutureSchedules(t *testing.T) {
	repo := newMemPubRepo()
	clk := &clock.Fixed{T: pubNow()}
	future := dueSchedule("s1", domain.PlatformInstagram)
	future.ScheduledTime = pubNow().Add(time.Hour)
	repo.put(future)

	m := newTestManager(repo, &countingNotifier{}, clk, &scriptedPublisher{
		platform: domain.PlatformInstagram,
		results:  []domain.PublishResult{{Success: true}},
	})
	m.RunOnce(context.Background())

	if got := repo.get("s1"); got.Status != domain.ScheduleScheduled {
		t.Fatalf("status = %s, want untouched scheduled", got.Status)
	}
}

func TestManager_PartialSuccess(t *testing.T) {
	repo := newMemPubRepo()
	notifier := &countingNotifier{}
	clk := &clock.Fixed{T: pubNow()}
	repo.put(dueSchedule("s1", domain.PlatformInstagram, domain.PlatformTikTok))

	m := newTestManager(repo, notifier, clk,
		&scriptedPublisher{
			platform: domain.PlatformInstagram,
			results:  []domain.PublishResult{{Success: true, PlatformPostID: "ig-1"}},
		},
		&scriptedPublisher{
			platform: domain.PlatformTikTok,
			results: []domain.PublishResult{{
				ErrorCode:    domain.PublishErrUnavailable,
				ErrorMessage: "gateway timeout",
			}},
		})
	m.RunOnce(context.Background())

	got := repo.get("s1")
	if got.Status != domain.SchedulePublished {
		t.Fatalf("status = %s, want published", got.Status)
	}
	if got.FailureReason == nil || !strings.HasPrefix(*got.FailureReason, "Partial publishing success") {
		t.Errorf("failureReason = %v, want partial-success reason", got.FailureReason)
	}
}

func TestManager_TerminalFailureSkipsRetry(t *testing.T) {
	repo := newMemPubRepo()
	notifier := &countingNotifier{}
	clk := &clock.Fixed{T: pubNow()}
	repo.put(dueSchedule("s1", domain.PlatformInstagram))

	m := newTestManager(repo, notifier, clk, &scriptedPublisher{
		platform: domain.PlatformInstagram,
		results: []domain.PublishResult{{
			ErrorCode:    domain.PublishErrAuth,
			ErrorMessage: "token revoked",
		}},
	})
	m.RunOnce(context.Background())

	got := repo.get("s1")
	if got.Status != domain.ScheduleFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.RetryCount != 0 {
		t.Errorf("retryCount = %d, want 0 for terminal error", got.RetryCount)
	}
	if notifier.count(domain.NotifyFailed) != 1 {
		t.Errorf("failed notifications = %d, want 1", notifier.count(domain.NotifyFailed))
	}
}

func TestManager_TransientRetriesThenFails(t *testing.T) {
	repo := newMemPubRepo()
	notifier := &countingNotifier{}
	clk := &clock.Fixed{T: pubNow()}
	repo.put(dueSchedule("s1", domain.PlatformInstagram))

	m := newTestManager(repo, notifier, clk, &scriptedPublisher{
		platform: domain.PlatformInstagram,
		results: []domain.PublishResult{{
			ErrorCode:    domain.PublishErrRateLimited,
			ErrorMessage: "platform throttled",
		}},
	})

	// Three transient failures re-arm the schedule with growing backoff.
	for attempt := 1; attempt <= 3; attempt++ {
		m.RunOnce(context.Background())
		got := repo.get("s1")
		if got.Status != domain.ScheduleScheduled {
			t.Fatalf("attempt %d: status = %s, want scheduled", attempt, got.Status)
		}
		if got.RetryCount != attempt {
			t.Fatalf("attempt %d: retryCount = %d", attempt, got.RetryCount)
		}
		if !got.ScheduledTime.After(clk.Now()) {
			t.Fatalf("attempt %d: next attempt not in the future", attempt)
		}
		clk.T = got.ScheduledTime.Add(time.Second)
	}

	// Fourth attempt exhausts maxRetries=3.
	m.RunOnce(context.Background())
	got := repo.get("s1")
	if got.Status != domain.ScheduleFailed {
		t.Fatalf("status = %s, want failed after retries exhausted", got.Status)
	}
	if got.FailureReason == nil || !strings.Contains(*got.FailureReason, "max retries") {
		t.Errorf("failureReason = %v, want max-retries reason", got.FailureReason)
	}
	if notifier.count(domain.NotifyFailed) != 1 {
		t.Errorf("failed notifications = %d, want exactly 1", notifier.count(domain.NotifyFailed))
	}
}

func TestManager_Backoff(t *testing.T) {
	m := NewManager(testPubConfig(), newMemPubRepo(), nil, &clock.Fixed{T: pubNow()})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{6, 32 * time.Minute},
		{7, time.Hour},
		{20, time.Hour},
	}
	for _, tt := range tests {
		if got := m.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestManager_UnregisteredPlatformIsTerminal(t *testing.T) {
	repo := newMemPubRepo()
	clk := &clock.Fixed{T: pubNow()}
	repo.put(dueSchedule("s1", domain.PlatformYouTube))

	m := newTestManager(repo, &countingNotifier{}, clk)
	m.RunOnce(context.Background())

	got := repo.get("s1")
	if got.Status != domain.ScheduleFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.FailureReason == nil || !strings.Contains(*got.FailureReason, "no publisher registered") {
		t.Errorf("failureReason = %v", got.FailureReason)
	}
}

func TestNotificationQueue_DeliversDueOnce(t *testing.T) {
	notifier := &countingNotifier{}
	clk := &clock.Fixed{T: pubNow()}
	queue := NewNotificationQueue(notifier, clk)

	_, err := queue.ScheduleNotification(context.Background(), domain.NotificationEnvelope{
		ScheduleID: "s1",
		Type:       domain.NotifyPrePublish,
		Title:      "Launch post",
		SendAt:     pubNow().Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("ScheduleNotification: %v", err)
	}

	queue.DeliverDue(context.Background(), clk.Now())
	if notifier.count(domain.NotifyPrePublish) != 0 {
		t.Fatal("notification delivered before its send time")
	}

	clk.Advance(11 * time.Minute)
	queue.DeliverDue(context.Background(), clk.Now())
	queue.DeliverDue(context.Background(), clk.Now())
	if got := notifier.count(domain.NotifyPrePublish); got != 1 {
		t.Fatalf("pre_publish deliveries = %d, want exactly 1", got)
	}
	if queue.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", queue.PendingCount())
	}
}

func TestNotificationQueue_Cancel(t *testing.T) {
	notifier := &countingNotifier{}
	clk := &clock.Fixed{T: pubNow()}
	queue := NewNotificationQueue(notifier, clk)

	handle, _ := queue.ScheduleNotification(context.Background(), domain.NotificationEnvelope{
		ScheduleID: "s1",
		Type:       domain.NotifyPrePublish,
		SendAt:     pubNow().Add(time.Minute),
	})
	queue.Cancel(handle)

	clk.Advance(2 * time.Minute)
	queue.DeliverDue(context.Background(), clk.Now())
	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %d, want 0 after cancel", len(notifier.sent))
	}
}
