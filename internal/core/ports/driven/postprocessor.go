package driven

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// ChunkExtractor splits extracted document text into chunks.
// Implementations are pure: no I/O, no shared state between calls.
type ChunkExtractor interface {
	// Name returns the extractor name for logging.
	Name() string

	// Extract returns the ordered chunks of text for fileID.
	// Chunks carry IDs, positions and keywords but no embeddings.
	Extract(fileID, text string) []domain.Chunk
}
