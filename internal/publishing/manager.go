package publishing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/distlock"
	"github.com/ignite/engage/internal/pkg/logger"
)

const dispatchLockTTL = 2 * time.Minute

// Manager is the publish dispatcher. One tick loop claims due schedules,
// fans out to platform publishers, and settles each schedule's status.
type Manager struct {
	cfg        config.PublishingConfig
	repo       Repository
	publishers map[domain.Platform]PlatformPublisher
	queue      *NotificationQueue
	clock      clock.Clock

	// Optional coordination layer. Nil fields degrade to single-process
	// behavior: no cross-dispatcher lock, limits, or dedup.
	redis   *redis.Client
	limiter *RateLimiter
	once    *OnceGuard

	published int64
	failed    int64
	retried   int64
	deferred  int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewManager(cfg config.PublishingConfig, repo Repository, queue *NotificationQueue, clk clock.Clock) *Manager {
	return &Manager{
		cfg:        cfg,
		repo:       repo,
		publishers: map[domain.Platform]PlatformPublisher{},
		queue:      queue,
		clock:      clk,
	}
}

// SetRedisClient enables distributed dispatch locking, rate limiting, and
// publish deduplication.
func (m *Manager) SetRedisClient(client *redis.Client) {
	m.redis = client
	m.limiter = NewRateLimiter(client)
	m.once = NewOnceGuard(client)
}

// RegisterPublisher adds a platform integration.
func (m *Manager) RegisterPublisher(p PlatformPublisher) {
	m.publishers[p.Platform()] = p
}

// Start begins the tick loop.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("publishing manager already running")
	}
	m.running = true
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.mu.Unlock()

	logger.Info("publishing manager starting",
		"tick", m.cfg.Tick().String(), "page_size", m.cfg.DuePageSize)

	m.wg.Add(1)
	go m.tickLoop()
	return nil
}

// Stop gracefully stops the loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	logger.Info("publishing manager stopped",
		"published", atomic.LoadInt64(&m.published),
		"failed", atomic.LoadInt64(&m.failed),
		"retried", atomic.LoadInt64(&m.retried))
}

func (m *Manager) tickLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(m.ctx)
		}
	}
}

// RunOnce performs a single dispatch pass. Exposed so tests and the worker
// binary can drive ticks directly.
func (m *Manager) RunOnce(ctx context.Context) {
	if m.redis != nil {
		lock := distlock.NewRedisLock(m.redis, "publish:dispatch", dispatchLockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("dispatch lock error", "error", err.Error())
			return
		}
		if !acquired {
			return
		}
		defer lock.Release(ctx)
	}

	now := m.clock.Now()
	m.queue.DeliverDue(ctx, now)

	due, err := m.repo.ClaimDue(ctx, now, m.cfg.DuePageSize)
	if err != nil {
		logger.Error("claim due schedules failed", "error", err.Error())
		return
	}
	for i := range due {
		m.dispatch(ctx, &due[i])
	}
}

// dispatch publishes one claimed schedule to all its platforms and settles
// the outcome.
func (m *Manager) dispatch(ctx context.Context, sched *domain.ScheduledContent) {
	results := make([]domain.PublishResult, 0, len(sched.Platforms))
	for _, platform := range sched.Platforms {
		results = append(results, m.publishOne(ctx, sched, platform))
	}
	m.settle(ctx, sched, results)
}

func (m *Manager) publishOne(ctx context.Context, sched *domain.ScheduledContent, platform domain.Platform) domain.PublishResult {
	publisher, ok := m.publishers[platform]
	if !ok {
		return domain.PublishResult{
			Platform:     platform,
			ErrorCode:    domain.PublishErrValidation,
			ErrorMessage: fmt.Sprintf("no publisher registered for %s", platform),
		}
	}

	if err := publisher.ValidateContent(ctx, sched); err != nil {
		return domain.PublishResult{
			Platform:     platform,
			ErrorCode:    domain.PublishErrValidation,
			ErrorMessage: err.Error(),
		}
	}

	if m.limiter != nil {
		allowed, wait, err := m.limiter.Allow(ctx, platform, m.clock.Now())
		if err != nil {
			logger.Warn("rate limit check failed, proceeding",
				"platform", string(platform), "error", err.Error())
		} else if !allowed {
			atomic.AddInt64(&m.deferred, 1)
			return domain.PublishResult{
				Platform:     platform,
				ErrorCode:    domain.PublishErrRateLimited,
				ErrorMessage: fmt.Sprintf("platform rate limit, retry in %s", wait),
			}
		}
	}

	if m.once != nil {
		claimed, err := m.once.Claim(ctx, sched.ID, platform)
		if err != nil {
			logger.Warn("dedup claim failed, proceeding",
				"schedule_id", sched.ID, "platform", string(platform), "error", err.Error())
		} else if !claimed {
			// A previous attempt already went out.
			return domain.PublishResult{Platform: platform, Success: true}
		}
	}

	result := publisher.PublishContent(ctx, sched)
	if !result.Success && m.once != nil {
		m.once.Release(ctx, sched.ID, platform)
	}
	return result
}

// settle aggregates per-platform results into the schedule's final status.
func (m *Manager) settle(ctx context.Context, sched *domain.ScheduledContent, results []domain.PublishResult) {
	var successes, failures int
	var failureParts []string
	allTerminal := true
	for _, r := range results {
		if r.Success {
			successes++
			continue
		}
		failures++
		failureParts = append(failureParts, fmt.Sprintf("%s: %s", r.Platform, r.ErrorMessage))
		if !r.ErrorCode.Terminal() {
			allTerminal = false
		}
	}

	switch {
	case failures == 0:
		m.markPublished(ctx, sched, "")
	case successes > 0:
		m.markPublished(ctx, sched, "Partial publishing success: "+strings.Join(failureParts, "; "))
	case allTerminal:
		m.markFailed(ctx, sched, strings.Join(failureParts, "; "))
	default:
		m.retryOrFail(ctx, sched, strings.Join(failureParts, "; "))
	}
}

func (m *Manager) markPublished(ctx context.Context, sched *domain.ScheduledContent, reason string) {
	sched.Status = domain.SchedulePublished
	if reason != "" {
		sched.FailureReason = &reason
	}
	sched.UpdatedAt = m.clock.Now()
	m.notifyOnce(sched, domain.NotifyPublished, "content published")
	if err := m.repo.Update(ctx, sched); err != nil {
		logger.Error("persist published schedule failed", "schedule_id", sched.ID, "error", err.Error())
		return
	}
	atomic.AddInt64(&m.published, 1)
	logger.Info("schedule published", "schedule_id", sched.ID, "partial", reason != "")
}

func (m *Manager) markFailed(ctx context.Context, sched *domain.ScheduledContent, reason string) {
	sched.Status = domain.ScheduleFailed
	sched.FailureReason = &reason
	sched.UpdatedAt = m.clock.Now()
	m.notifyOnce(sched, domain.NotifyFailed, reason)
	if err := m.repo.Update(ctx, sched); err != nil {
		logger.Error("persist failed schedule failed", "schedule_id", sched.ID, "error", err.Error())
		return
	}
	atomic.AddInt64(&m.failed, 1)
	logger.Warn("schedule failed", "schedule_id", sched.ID, "reason", reason)
}

// retryOrFail re-arms a transiently failed schedule with exponential backoff,
// or fails it permanently once retries are spent.
func (m *Manager) retryOrFail(ctx context.Context, sched *domain.ScheduledContent, reason string) {
	if sched.RetryCount >= sched.MaxRetries {
		m.markFailed(ctx, sched, fmt.Sprintf("max retries (%d) exceeded; last error: %s", sched.MaxRetries, reason))
		return
	}

	sched.RetryCount++
	sched.Status = domain.ScheduleScheduled
	sched.ScheduledTime = m.clock.Now().Add(m.backoff(sched.RetryCount))
	sched.FailureReason = &reason
	sched.UpdatedAt = m.clock.Now()
	if err := m.repo.Update(ctx, sched); err != nil {
		logger.Error("persist retry failed", "schedule_id", sched.ID, "error", err.Error())
		return
	}
	atomic.AddInt64(&m.retried, 1)
	logger.Info("schedule re-armed for retry",
		"schedule_id", sched.ID, "retry", sched.RetryCount,
		"next_attempt", sched.ScheduledTime.Format(time.RFC3339))
}

// backoff is base * 2^(attempt-1), capped.
func (m *Manager) backoff(attempt int) time.Duration {
	base := time.Duration(m.cfg.RetryBaseSeconds) * time.Second
	ceiling := time.Duration(m.cfg.RetryCapSeconds) * time.Second
	d := base << (attempt - 1)
	if d > ceiling || d <= 0 {
		d = ceiling
	}
	return d
}

// notifyOnce queues an outcome notification unless the schedule already got
// one of this type.
func (m *Manager) notifyOnce(sched *domain.ScheduledContent, typ domain.NotificationType, message string) {
	for _, sent := range sched.NotificationsSent {
		if sent == string(typ) {
			return
		}
	}
	sched.NotificationsSent = append(sched.NotificationsSent, string(typ))
	if m.queue == nil {
		return
	}
	if err := m.queue.SendNotification(context.Background(), domain.NotificationEnvelope{
		ScheduleID: sched.ID,
		Type:       typ,
		Title:      sched.Title,
		Message:    message,
		Recipients: []string{sched.CreatedBy},
		SendAt:     m.clock.Now(),
	}); err != nil {
		logger.Warn("outcome notification failed",
			"schedule_id", sched.ID, "type", string(typ), "error", err.Error())
	}
}

// Snapshot reports dispatcher counters.
func (m *Manager) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"published":             atomic.LoadInt64(&m.published),
		"failed":                atomic.LoadInt64(&m.failed),
		"retried":               atomic.LoadInt64(&m.retried),
		"rate_limit_deferrals":  atomic.LoadInt64(&m.deferred),
		"pending_notifications": m.queue.PendingCount(),
	}
}
