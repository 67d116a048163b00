package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/scheduling"
)

const scheduleColumns = `
	id, brand_id, content_id, title, content, platforms, content_type,
	scheduled_time, timezone, status, priority, campaign_id, tags,
	created_by, created_at, updated_at, retry_count, max_retries,
	notifications_sent, failure_reason`

// conflictHorizon matches the widest conflict detector window.
const conflictHorizon = 7 * 24 * time.Hour

// ScheduleRepo implements scheduling.Repository and the publishing
// dispatcher's claim contract against PostgreSQL.
type ScheduleRepo struct{ db *sql.DB }

// NewScheduleRepo creates a Postgres-backed schedule repository.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

func (r *ScheduleRepo) Create(ctx context.Context, s *domain.ScheduledContent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO engage_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20)
	`, s.ID, s.BrandID, s.ContentID, s.Title, s.Content,
		pq.Array(platformStrings(s.Platforms)), s.ContentType,
		s.ScheduledTime, s.Timezone, s.Status, s.Priority, s.CampaignID,
		pq.Array(s.Tags), s.CreatedBy, s.CreatedAt, s.UpdatedAt,
		s.RetryCount, s.MaxRetries, pq.Array(s.NotificationsSent), s.FailureReason)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepo) Get(ctx context.Context, id string) (*domain.ScheduledContent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+scheduleColumns+` FROM engage_schedules WHERE id = $1
	`, id)
	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, scheduling.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, s *domain.ScheduledContent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE engage_schedules SET
			title = $2, content = $3, platforms = $4, content_type = $5,
			scheduled_time = $6, timezone = $7, status = $8, priority = $9,
			campaign_id = $10, tags = $11, updated_at = $12, retry_count = $13,
			max_retries = $14, notifications_sent = $15, failure_reason = $16
		WHERE id = $1
	`, s.ID, s.Title, s.Content, pq.Array(platformStrings(s.Platforms)),
		s.ContentType, s.ScheduledTime, s.Timezone, s.Status, s.Priority,
		s.CampaignID, pq.Array(s.Tags), s.UpdatedAt, s.RetryCount,
		s.MaxRetries, pq.Array(s.NotificationsSent), s.FailureReason)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scheduling.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM engage_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scheduling.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepo) ListByBrand(ctx context.Context, brandID string, f scheduling.ListFilter) ([]domain.ScheduledContent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT ` + scheduleColumns + ` FROM engage_schedules WHERE brand_id = $1`
	args := []interface{}{brandID}
	idx := 2

	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Platform != "" {
		q += fmt.Sprintf(" AND $%d = ANY(platforms)", idx)
		args = append(args, string(f.Platform))
		idx++
	}
	if f.CampaignID != "" {
		q += fmt.Sprintf(" AND campaign_id = $%d", idx)
		args = append(args, f.CampaignID)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY scheduled_time, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	return r.queryList(ctx, q, args...)
}

func (r *ScheduleRepo) ListByTimeRange(ctx context.Context, brandID string, from, to time.Time) ([]domain.ScheduledContent, error) {
	return r.queryList(ctx, `
		SELECT `+scheduleColumns+` FROM engage_schedules
		WHERE brand_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3
		ORDER BY scheduled_time, id
	`, brandID, from, to)
}

func (r *ScheduleRepo) ListConflictCandidates(ctx context.Context, brandID string, t time.Time, excludeID string) ([]domain.ScheduledContent, error) {
	return r.queryList(ctx, `
		SELECT `+scheduleColumns+` FROM engage_schedules
		WHERE brand_id = $1
		  AND scheduled_time >= $2 AND scheduled_time <= $3
		  AND status NOT IN ('published', 'cancelled')
		  AND ($4 = '' OR id != $4)
		ORDER BY scheduled_time, id
	`, brandID, t.Add(-conflictHorizon), t.Add(conflictHorizon), excludeID)
}

func (r *ScheduleRepo) CountByPlatform(ctx context.Context, brandID string, platform domain.Platform, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM engage_schedules
		WHERE brand_id = $1 AND $2 = ANY(platforms)
		  AND scheduled_time >= $3 AND scheduled_time < $4
		  AND status != 'cancelled'
	`, brandID, string(platform), from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by platform: %w", err)
	}
	return count, nil
}

// ClaimDue atomically flips a page of due schedules to 'publishing' and
// returns them. SKIP LOCKED keeps concurrent dispatchers from claiming the
// same rows.
func (r *ScheduleRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledContent, error) {
	return r.queryList(ctx, `
		UPDATE engage_schedules SET status = 'publishing', updated_at = $1
		WHERE id IN (
			SELECT id FROM engage_schedules
			WHERE status = 'scheduled' AND scheduled_time <= $1
			ORDER BY scheduled_time, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+scheduleColumns+`
	`, now, limit)
}

func (r *ScheduleRepo) queryList(ctx context.Context, q string, args ...interface{}) ([]domain.ScheduledContent, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledContent
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*domain.ScheduledContent, error) {
	s := &domain.ScheduledContent{}
	var platforms, tags, notifications []string
	err := row.Scan(
		&s.ID, &s.BrandID, &s.ContentID, &s.Title, &s.Content,
		pq.Array(&platforms), &s.ContentType, &s.ScheduledTime, &s.Timezone,
		&s.Status, &s.Priority, &s.CampaignID, pq.Array(&tags),
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.RetryCount,
		&s.MaxRetries, pq.Array(&notifications), &s.FailureReason,
	)
	if err != nil {
		return nil, err
	}
	s.Platforms = make([]domain.Platform, len(platforms))
	for i, p := range platforms {
		s.Platforms[i] = domain.Platform(p)
	}
	s.Tags = tags
	s.NotificationsSent = notifications
	return s, nil
}

func platformStrings(platforms []domain.Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}
