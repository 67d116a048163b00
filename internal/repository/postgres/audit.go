package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/engage/internal/domain"
)

// AuditRepo persists decision audit trails.
type AuditRepo struct{ db *sql.DB }

// NewAuditRepo creates a Postgres-backed audit repository.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// SaveAudit appends the trail entries for one decision. seq preserves stage
// ordering on read.
func (r *AuditRepo) SaveAudit(ctx context.Context, decisionID string, entries []domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO engage_decision_audit (decision_id, seq, stage, recorded_at, details)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, decisionID, i, e.Stage, e.Timestamp, details); err != nil {
			return fmt.Errorf("insert audit entry %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetAudit returns a decision's trail in stage order.
func (r *AuditRepo) GetAudit(ctx context.Context, decisionID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stage, recorded_at, details
		FROM engage_decision_audit
		WHERE decision_id = $1
		ORDER BY seq
	`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("get audit: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details []byte
		if err := rows.Scan(&e.Stage, &e.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
