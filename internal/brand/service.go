// Package brand loads brand operating contexts. Contexts are cached per
// brand and keyed by playbook version, so a version bump invalidates the
// cached entry on the next read.
package brand

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/logger"
)

// ErrNotFound is returned when a brand does not exist.
var ErrNotFound = errors.New("brand not found")

// Repository is the persistence surface for brand contexts.
type Repository interface {
	// GetVersion returns the brand's current playbook version. Returns
	// ErrNotFound for unknown brands.
	GetVersion(ctx context.Context, brandID string) (string, error)

	// GetContext returns the full brand context.
	GetContext(ctx context.Context, brandID string) (*domain.BrandContext, error)
}

type cacheEntry struct {
	ctx     *domain.BrandContext
	version string
}

// Service serves brand contexts with a version-keyed cache.
type Service struct {
	repo Repository

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, cache: map[string]cacheEntry{}}
}

// Get returns the brand context, from cache when the stored playbook
// version still matches.
func (s *Service) Get(ctx context.Context, brandID string) (*domain.BrandContext, error) {
	version, err := s.repo.GetVersion(ctx, brandID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.cache[brandID]
	s.mu.RUnlock()
	if ok && entry.version == version {
		return entry.ctx, nil
	}

	bc, err := s.repo.GetContext(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("load brand context: %w", err)
	}

	s.mu.Lock()
	s.cache[brandID] = cacheEntry{ctx: bc, version: bc.Playbook.Version}
	s.mu.Unlock()

	if ok {
		logger.Info("brand context refreshed",
			"brand_id", brandID, "old_version", entry.version, "new_version", version)
	}
	return bc, nil
}

// BrandExists reports whether the brand is known. Satisfies the scheduling
// engine's brand directory contract.
func (s *Service) BrandExists(ctx context.Context, brandID string) (bool, error) {
	_, err := s.repo.GetVersion(ctx, brandID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate drops a brand's cached context.
func (s *Service) Invalidate(brandID string) {
	s.mu.Lock()
	delete(s.cache, brandID)
	s.mu.Unlock()
}
