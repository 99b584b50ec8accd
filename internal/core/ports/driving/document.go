package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentService manages uploaded files and their chunks.
type DocumentService interface {
	// Add validates, extracts, chunks and stores an upload.
	// Returns a *domain.ValidationError before any write when the upload is rejected.
	Add(ctx context.Context, req domain.UploadRequest) (*domain.FileRecord, error)

	// Get retrieves a file record by ID.
	Get(ctx context.Context, fileID string) (*domain.FileRecord, error)

	// List returns all file records in upload order.
	List(ctx context.Context) ([]domain.FileRecord, error)

	// Delete removes a file and its data. Returns false if the file did not exist.
	Delete(ctx context.Context, fileID string) (bool, error)

	// Rechunk re-extracts chunks from the stored original, dropping embeddings.
	Rechunk(ctx context.Context, fileID string) (*domain.FileRecord, error)

	// AssignStage moves a file into a stage, or out of any stage when stageID is nil.
	AssignStage(ctx context.Context, fileID string, stageID *string) (*domain.FileRecord, error)

	// Chunks returns the stored chunks of a file.
	Chunks(ctx context.Context, fileID string) ([]domain.Chunk, error)
}
