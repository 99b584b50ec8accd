package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure StageStore implements the interface.
var _ driven.StageStore = (*StageStore)(nil)

// StageStore is an in-memory implementation of driven.StageStore.
type StageStore struct {
	mu     sync.RWMutex
	stages map[string]domain.Stage
}

// NewStageStore creates a new in-memory stage store.
func NewStageStore() *StageStore {
	return &StageStore{
		stages: make(map[string]domain.Stage),
	}
}

// ListStages returns all stages ordered by creation time, then ID.
func (s *StageStore) ListStages(_ context.Context) ([]domain.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stages := make([]domain.Stage, 0, len(s.stages))
	for _, st := range s.stages {
		stages = append(stages, st)
	}
	sort.Slice(stages, func(i, j int) bool {
		if stages[i].CreatedAt.Equal(stages[j].CreatedAt) {
			return stages[i].ID < stages[j].ID
		}
		return stages[i].CreatedAt.Before(stages[j].CreatedAt)
	})
	return stages, nil
}

// GetStage retrieves a stage by ID.
func (s *StageStore) GetStage(_ context.Context, id string) (*domain.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

// SaveStage creates or updates a stage.
func (s *StageStore) SaveStage(_ context.Context, stage domain.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage.ID] = stage
	return nil
}

// DeleteStage removes a stage.
func (s *StageStore) DeleteStage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stages, id)
	return nil
}
