package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/engage/internal/brand"
	"github.com/ignite/engage/internal/domain"
)

// BrandRepo implements brand.Repository against PostgreSQL. Playbook,
// personas, and assets live in JSONB columns.
type BrandRepo struct{ db *sql.DB }

// NewBrandRepo creates a Postgres-backed brand repository.
func NewBrandRepo(db *sql.DB) *BrandRepo { return &BrandRepo{db: db} }

func (r *BrandRepo) GetVersion(ctx context.Context, brandID string) (string, error) {
	var version string
	err := r.db.QueryRowContext(ctx, `
		SELECT playbook->>'version' FROM engage_brands WHERE id = $1
	`, brandID).Scan(&version)
	if err == sql.ErrNoRows {
		return "", brand.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get brand version: %w", err)
	}
	return version, nil
}

func (r *BrandRepo) GetContext(ctx context.Context, brandID string) (*domain.BrandContext, error) {
	var playbook, personas, assets []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT playbook, personas, COALESCE(assets, '[]')
		FROM engage_brands WHERE id = $1
	`, brandID).Scan(&playbook, &personas, &assets)
	if err == sql.ErrNoRows {
		return nil, brand.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brand context: %w", err)
	}

	bc := &domain.BrandContext{BrandID: brandID}
	if err := json.Unmarshal(playbook, &bc.Playbook); err != nil {
		return nil, fmt.Errorf("decode playbook: %w", err)
	}
	if err := json.Unmarshal(personas, &bc.Personas); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	if err := json.Unmarshal(assets, &bc.Assets); err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}
	return bc, nil
}
