package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentStore persists the file index, uploaded originals and per-file
// chunk data. Paths are relative to the store's data directory.
//
// Every write must be atomic: a crash leaves either the old or the new
// content, never a torn file.
type DocumentStore interface {
	// LoadIndex reads the file index. A missing index is empty.
	// A malformed index is quarantined and served as empty.
	LoadIndex(ctx context.Context) (*domain.Index, error)

	// SaveIndex writes the file index.
	SaveIndex(ctx context.Context, idx *domain.Index) error

	// WriteOriginal stores the uploaded bytes at path.
	WriteOriginal(ctx context.Context, path string, content []byte) error

	// ReadOriginal returns the uploaded bytes stored at path.
	// Returns domain.ErrNotFound if nothing is stored there.
	ReadOriginal(ctx context.Context, path string) ([]byte, error)

	// WriteChunks stores the chunk data for a file, next to its original.
	WriteChunks(ctx context.Context, file domain.FileRecord, data *domain.ChunkData) error

	// ReadChunks returns the chunk data for a file.
	// Returns domain.ErrNotFound if missing and domain.ErrCorruptChunkData if malformed.
	ReadChunks(ctx context.Context, file domain.FileRecord) (*domain.ChunkData, error)

	// DeleteFileData removes the original and chunk data of a file.
	// Missing files are ignored.
	DeleteFileData(ctx context.Context, file domain.FileRecord) error

	// MoveFileData relocates the original and chunk data of a file to newPath.
	MoveFileData(ctx context.Context, file domain.FileRecord, newPath string) error
}
