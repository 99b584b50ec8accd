package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// CacheService exposes the chunk and embedding cache.
type CacheService interface {
	// LoadAll returns the current snapshot, loading it if stale.
	LoadAll(ctx context.Context) (*domain.Snapshot, error)

	// Reload forces a load. Concurrent callers share one load.
	Reload(ctx context.Context) (*domain.Snapshot, error)

	// Invalidate marks the current snapshot stale without blocking.
	Invalidate()

	// Current returns the last published snapshot, or nil.
	Current() *domain.Snapshot

	// EnsureEmbeddings embeds the chunks lacking a vector.
	EnsureEmbeddings(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, domain.EmbedReport)

	// Regenerate drops and rebuilds the embeddings of the given files,
	// or of every file when fileIDs is empty.
	Regenerate(ctx context.Context, fileIDs []string) (domain.ReloadReport, error)

	// Stats describes the cache state.
	Stats() domain.CacheStats
}
