package publishing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
)

// Notifier delivers a notification to its recipients.
type Notifier interface {
	Send(ctx context.Context, envelope domain.NotificationEnvelope) error
}

// LogNotifier writes notifications to the structured log. Used when no
// external channel is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, e domain.NotificationEnvelope) error {
	logger.Info("notification",
		"schedule_id", e.ScheduleID, "type", string(e.Type),
		"title", e.Title, "recipients", len(e.Recipients))
	return nil
}

// NotificationQueue holds future notifications and delivers the due ones on
// each dispatcher tick. One pending entry exists per (schedule, type) pair,
// so delivery happens at most once even if registration repeats.
type NotificationQueue struct {
	mu       sync.Mutex
	pending  map[string]domain.NotificationEnvelope
	notifier Notifier
	clock    clock.Clock
}

func NewNotificationQueue(notifier Notifier, clk clock.Clock) *NotificationQueue {
	return &NotificationQueue{
		pending:  map[string]domain.NotificationEnvelope{},
		notifier: notifier,
		clock:    clk,
	}
}

// ScheduleNotification registers a future notification and returns its handle.
func (q *NotificationQueue) ScheduleNotification(_ context.Context, e domain.NotificationEnvelope) (string, error) {
	handle := fmt.Sprintf("%s:%s", e.ScheduleID, e.Type)
	q.mu.Lock()
	q.pending[handle] = e
	q.mu.Unlock()
	return handle, nil
}

// SendNotification delivers immediately.
func (q *NotificationQueue) SendNotification(ctx context.Context, e domain.NotificationEnvelope) error {
	return q.notifier.Send(ctx, e)
}

// Cancel drops a pending notification by handle.
func (q *NotificationQueue) Cancel(handle string) {
	q.mu.Lock()
	delete(q.pending, handle)
	q.mu.Unlock()
}

// DeliverDue sends every pending notification whose SendAt has arrived and
// removes it from the queue. Failed sends stay queued for the next tick.
func (q *NotificationQueue) DeliverDue(ctx context.Context, now time.Time) {
	q.mu.Lock()
	var due []string
	for handle, e := range q.pending {
		if !e.SendAt.After(now) {
			due = append(due, handle)
		}
	}
	envelopes := make([]domain.NotificationEnvelope, 0, len(due))
	for _, handle := range due {
		envelopes = append(envelopes, q.pending[handle])
		delete(q.pending, handle)
	}
	q.mu.Unlock()

	for _, e := range envelopes {
		if err := q.notifier.Send(ctx, e); err != nil {
			logger.Warn("notification delivery failed, requeueing",
				"schedule_id", e.ScheduleID, "type", string(e.Type), "error", err.Error())
			q.mu.Lock()
			q.pending[fmt.Sprintf("%s:%s", e.ScheduleID, e.Type)] = e
			q.mu.Unlock()
		}
	}
}

// PendingCount reports how many notifications are queued.
func (q *NotificationQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
