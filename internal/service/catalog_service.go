package service

import (
	"context"
	"errors"
	"sync"

	"balans/wellbeing-app/internal/catalog"
	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/repository"

	"go.uber.org/zap"
)

var ErrCatalogNotLoaded = errors.New("content catalog not loaded")

// CatalogService owns the in-memory content library snapshot. Refresh loads
// a new snapshot from the configured source, mirrors it into the database
// for ops visibility, and swaps it in atomically; composition keeps reading
// whatever snapshot it started with.
type CatalogService interface {
	Refresh(ctx context.Context) error
	Library() (*catalog.Library, error)

	// planner.Catalog
	ActiveExercises() []domain.Exercise
	ByID(id string) (domain.Exercise, bool)
}

type catalogService struct {
	source catalog.Source
	mirror repository.CatalogRepository
	logger *zap.Logger

	mu      sync.RWMutex
	current *catalog.Library
}

// NewCatalogService creates the catalog service. mirror may be nil when no
// database mirroring is wanted (tests, tooling).
func NewCatalogService(source catalog.Source, mirror repository.CatalogRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		source: source,
		mirror: mirror,
		logger: logger,
	}
}

// Refresh loads and swaps in a new library snapshot. On any failure the
// previous snapshot stays active.
func (s *catalogService) Refresh(ctx context.Context) error {
	lib, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("content catalog refresh failed", zap.Error(err))
		return err
	}

	if s.mirror != nil {
		synced, err := s.mirror.Sync(ctx, lib.All())
		if err != nil {
			s.logger.Error("content catalog mirror sync failed", zap.Error(err))
			return err
		}
		s.logger.Info("content catalog mirrored", zap.Int("entries", synced))
	}

	s.mu.Lock()
	s.current = lib
	s.mu.Unlock()

	s.logger.Info("content catalog loaded",
		zap.Int("total", lib.Len()),
		zap.Int("active", len(lib.ActiveExercises())),
	)
	return nil
}

// Library returns the current snapshot.
func (s *catalogService) Library() (*catalog.Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrCatalogNotLoaded
	}
	return s.current, nil
}

// ActiveExercises implements the planner's catalog interface. An unloaded
// catalog yields an empty list, which composition reports as an insufficient
// library.
func (s *catalogService) ActiveExercises() []domain.Exercise {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.ActiveExercises()
}

// ByID implements the planner's catalog interface.
func (s *catalogService) ByID(id string) (domain.Exercise, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Exercise{}, false
	}
	return s.current.ByID(id)
}
