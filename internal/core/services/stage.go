package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure StageService implements the interface.
var _ driving.StageService = (*StageService)(nil)

// invalidator marks the cache stale.
type invalidator interface {
	Invalidate()
}

// StageService manages stages. Every change that affects visibility
// invalidates the cache before returning.
type StageService struct {
	store driven.StageStore
	cache invalidator

	newID func() string
	now   func() time.Time
}

// NewStageService creates a new stage service.
func NewStageService(store driven.StageStore, cache invalidator) *StageService {
	return &StageService{
		store: store,
		cache: cache,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// List returns all stages.
func (s *StageService) List(ctx context.Context) ([]domain.Stage, error) {
	return s.store.ListStages(ctx)
}

// Get retrieves a stage by ID.
func (s *StageService) Get(ctx context.Context, id string) (*domain.Stage, error) {
	return s.store.GetStage(ctx, id)
}

// Create adds a new, active stage.
func (s *StageService) Create(ctx context.Context, name string) (*domain.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "stage name is required")
	}

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("stage %q: %w", name, domain.ErrAlreadyExists)
	}

	now := s.now()
	stage := domain.Stage{
		ID:        s.newID(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveStage(ctx, stage); err != nil {
		return nil, fmt.Errorf("save stage: %w", err)
	}
	logger.Info("Created stage %s (%s)", stage.Name, stage.ID)
	return &stage, nil
}

// SetActive toggles a stage's visibility.
func (s *StageService) SetActive(ctx context.Context, id string, active bool) (*domain.Stage, error) {
	stage, err := s.store.GetStage(ctx, id)
	if err != nil {
		return nil, err
	}
	if stage.IsActive == active {
		return stage, nil
	}

	stage.IsActive = active
	stage.UpdatedAt = s.now()
	if err := s.store.SaveStage(ctx, *stage); err != nil {
		return nil, fmt.Errorf("save stage: %w", err)
	}
	s.cache.Invalidate()

	logger.Info("Stage %s is now %s", stage.Name, activeLabel(active))
	return stage, nil
}

// Rename changes a stage's display name. Files already stored keep their
// directory.
func (s *StageService) Rename(ctx context.Context, id, name string) (*domain.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "stage name is required")
	}

	stage, err := s.store.GetStage(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, fmt.Errorf("stage %q: %w", name, domain.ErrAlreadyExists)
	}

	stage.Name = name
	stage.UpdatedAt = s.now()
	if err := s.store.SaveStage(ctx, *stage); err != nil {
		return nil, fmt.Errorf("save stage: %w", err)
	}
	return stage, nil
}

// Delete removes a stage. Files assigned to it become visible.
func (s *StageService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteStage(ctx, id); err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	s.cache.Invalidate()
	logger.Info("Deleted stage %s", id)
	return nil
}

// stageFile is the YAML layout accepted by Import.
type stageFile struct {
	Stages []struct {
		Name   string `yaml:"name"`
		Active *bool  `yaml:"active"`
	} `yaml:"stages"`
}

// Import creates or updates stages described by a YAML document:
//
//	stages:
//	  - name: onboarding
//	    active: true
//	  - name: drafts
//	    active: false
//
// Stages are matched by name. Omitting active leaves an existing stage
// unchanged and makes a new one active.
func (s *StageService) Import(ctx context.Context, data []byte) ([]domain.Stage, error) {
	var file stageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.NewValidationError("yaml", "%v", err)
	}

	for i, entry := range file.Stages {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, domain.NewValidationError("yaml", "stage %d has no name", i+1)
		}
	}

	imported := make([]domain.Stage, 0, len(file.Stages))
	changed := false
	for _, entry := range file.Stages {
		name := strings.TrimSpace(entry.Name)
		existing, err := s.findByName(ctx, name)
		if err != nil {
			return imported, err
		}

		if existing == nil {
			now := s.now()
			stage := domain.Stage{
				ID:        s.newID(),
				Name:      name,
				IsActive:  entry.Active == nil || *entry.Active,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.store.SaveStage(ctx, stage); err != nil {
				return imported, fmt.Errorf("save stage %q: %w", name, err)
			}
			imported = append(imported, stage)
			changed = true
			continue
		}

		if entry.Active != nil && *entry.Active != existing.IsActive {
			existing.IsActive = *entry.Active
			existing.UpdatedAt = s.now()
			if err := s.store.SaveStage(ctx, *existing); err != nil {
				return imported, fmt.Errorf("save stage %q: %w", name, err)
			}
			changed = true
		}
		imported = append(imported, *existing)
	}

	if changed {
		s.cache.Invalidate()
	}
	logger.Info("Imported %d stages", len(imported))
	return imported, nil
}

// findByName returns the stage with the given name (case-insensitive),
// or nil.
func (s *StageService) findByName(ctx context.Context, name string) (*domain.Stage, error) {
	stages, err := s.store.ListStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	for i := range stages {
		if strings.EqualFold(stages[i].Name, name) {
			st := stages[i]
			return &st, nil
		}
	}
	return nil, nil
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

