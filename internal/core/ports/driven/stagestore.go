package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// StageStore persists stages.
type StageStore interface {
	// ListStages returns all stages ordered by creation time.
	ListStages(ctx context.Context) ([]domain.Stage, error)

	// GetStage retrieves a stage by ID.
	// Returns domain.ErrNotFound if the stage does not exist.
	GetStage(ctx context.Context, id string) (*domain.Stage, error)

	// SaveStage creates or updates a stage.
	SaveStage(ctx context.Context, stage domain.Stage) error

	// DeleteStage removes a stage. Deleting a missing stage is not an error.
	DeleteStage(ctx context.Context, id string) error
}
