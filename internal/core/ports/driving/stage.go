package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// StageService manages stages and their visibility flag.
type StageService interface {
	// List returns all stages.
	List(ctx context.Context) ([]domain.Stage, error)

	// Get retrieves a stage by ID.
	Get(ctx context.Context, id string) (*domain.Stage, error)

	// Create adds a new, active stage.
	Create(ctx context.Context, name string) (*domain.Stage, error)

	// SetActive toggles visibility. The cache is invalidated before it returns.
	SetActive(ctx context.Context, id string, active bool) (*domain.Stage, error)

	// Rename changes a stage's display name.
	Rename(ctx context.Context, id, name string) (*domain.Stage, error)

	// Delete removes a stage. Its files stay and become visible.
	Delete(ctx context.Context, id string) error

	// Import creates stages described by a YAML document.
	// Stages whose name already exists are updated, not duplicated.
	Import(ctx context.Context, data []byte) ([]domain.Stage, error)
}
