package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// storeCoordinator is the part of the cache a writer needs: the shared
// store lock and invalidation.
type storeCoordinator interface {
	StoreLock() sync.Locker
	Invalidate()
}

// DocumentService manages uploaded files, their originals and chunks.
type DocumentService struct {
	docStore    driven.DocumentStore
	stageStore  driven.StageStore
	normalisers driven.NormaliserRegistry
	extractor   driven.ChunkExtractor
	cache       storeCoordinator
	maxBytes    int64

	newID func() string
	now   func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	stageStore driven.StageStore,
	normalisers driven.NormaliserRegistry,
	extractor driven.ChunkExtractor,
	cache storeCoordinator,
	upload domain.UploadSettings,
) *DocumentService {
	if upload.MaxSizeMB <= 0 {
		upload.MaxSizeMB = domain.DefaultMaxUploadSizeMB
	}
	return &DocumentService{
		docStore:    docStore,
		stageStore:  stageStore,
		normalisers: normalisers,
		extractor:   extractor,
		cache:       cache,
		maxBytes:    upload.MaxBytes(),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Add validates, extracts, chunks and stores an upload.
//
// Validation happens before anything is written. The original is written
// first, then the chunk data, then the index, so a crash never leaves an
// index entry without its data.
func (s *DocumentService) Add(ctx context.Context, req domain.UploadRequest) (*domain.FileRecord, error) {
	logger.Section("Upload")

	fileType, stage, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(req.Name))
	checksum := Checksum(req.Content)

	doc, err := s.normalise(ctx, req.Name, ext, req.Content)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	chunks := s.extractor.Extract(id, doc.Content)
	logger.Debug("Extracted %d chunks from %s (%d chars)", len(chunks), req.Name, len(doc.Content))

	record := domain.FileRecord{
		ID:           id,
		OriginalName: filepath.Base(req.Name),
		Type:         fileType,
		Extension:    ext,
		Size:         int64(len(req.Content)),
		ChunkCount:   len(chunks),
		UploadedAt:   s.now(),
		StageID:      req.StageID,
		StoragePath:  domain.OriginalPath(domain.StageDir(stage), id, ext),
		Checksum:     checksum,
	}

	lock := s.cache.StoreLock()
	lock.Lock()
	defer lock.Unlock()

	idx, err := s.docStore.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	for _, f := range idx.Files {
		if f.Checksum == checksum && sameStage(f.StageID, req.StageID) {
			return nil, fmt.Errorf("%s matches %s (%s): %w", req.Name, f.ID, f.OriginalName, domain.ErrDuplicateFile)
		}
	}

	if err := s.docStore.WriteOriginal(ctx, record.StoragePath, req.Content); err != nil {
		return nil, fmt.Errorf("write original: %w", err)
	}
	data := &domain.ChunkData{FileID: id, Chunks: chunks, GeneratedAt: record.UploadedAt}
	if err := s.docStore.WriteChunks(ctx, record, data); err != nil {
		s.cleanup(ctx, record)
		return nil, fmt.Errorf("write chunks: %w", err)
	}

	idx.Files = append(idx.Files, record)
	idx.LastUpdated = s.now()
	if err := s.docStore.SaveIndex(ctx, idx); err != nil {
		s.cleanup(ctx, record)
		return nil, fmt.Errorf("save index: %w", err)
	}

	s.cache.Invalidate()
	logger.Info("Stored %s as %s (%d chunks)", record.OriginalName, record.ID, record.ChunkCount)
	return &record, nil
}

// validate checks an upload before any processing. It returns the file
// type and the target stage (nil when unstaged).
func (s *DocumentService) validate(ctx context.Context, req domain.UploadRequest) (domain.FileType, *domain.Stage, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", nil, domain.NewValidationError("name", "file name is required")
	}

	ext := strings.ToLower(filepath.Ext(name))
	fileType, ok := domain.FileTypeForExtension(ext)
	if !ok {
		return "", nil, domain.NewValidationError("name", "unsupported extension %q", ext)
	}

	size := int64(len(req.Content))
	if size == 0 {
		return "", nil, domain.NewValidationError("content", "file is empty")
	}
	if size > s.maxBytes {
		return "", nil, domain.NewValidationError("content", "file is %d bytes, limit is %d", size, s.maxBytes)
	}

	if req.DeclaredType != "" {
		if !req.DeclaredType.IsValid() {
			return "", nil, domain.NewValidationError("type", "unknown file type %q", req.DeclaredType)
		}
		if req.DeclaredType != fileType {
			return "", nil, domain.NewValidationError("type",
				"declared type %q does not match extension %s (%s)", req.DeclaredType, ext, fileType)
		}
	}

	if req.StageID == nil || *req.StageID == "" {
		return fileType, nil, nil
	}
	stage, err := s.stageStore.GetStage(ctx, *req.StageID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.NewValidationError("stage", "unknown stage %q", *req.StageID)
	}
	if err != nil {
		return "", nil, fmt.Errorf("get stage: %w", err)
	}
	return fileType, stage, nil
}

// normalise extracts the text of an upload through the normaliser registry.
func (s *DocumentService) normalise(ctx context.Context, name, ext string, content []byte) (*domain.Document, error) {
	raw := &domain.RawDocument{
		Name:     name,
		MIMEType: domain.MIMETypeForExtension(ext),
		Content:  content,
		Metadata: map[string]any{"title": strings.TrimSuffix(filepath.Base(name), ext)},
	}
	res, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", name, err)
	}
	return &res.Document, nil
}

// cleanup removes the data of a record whose index write failed.
func (s *DocumentService) cleanup(ctx context.Context, record domain.FileRecord) {
	if err := s.docStore.DeleteFileData(ctx, record); err != nil {
		logger.Warn("Cleanup of %s failed: %v", record.ID, err)
	}
}

// Get retrieves a file record by ID.
func (s *DocumentService) Get(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	idx, err := s.docStore.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	pos := idx.Find(fileID)
	if pos < 0 {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}
	record := idx.Files[pos]
	return &record, nil
}

// List returns all file records in upload order.
func (s *DocumentService) List(ctx context.Context) ([]domain.FileRecord, error) {
	idx, err := s.docStore.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return idx.Files, nil
}

// Delete removes a file's index entry, chunk data and original.
// Deleting a file that does not exist is not an error.
func (s *DocumentService) Delete(ctx context.Context, fileID string) (bool, error) {
	lock := s.cache.StoreLock()
	lock.Lock()
	defer lock.Unlock()

	idx, err := s.docStore.LoadIndex(ctx)
	if err != nil {
		return false, fmt.Errorf("load index: %w", err)
	}
	pos := idx.Find(fileID)
	if pos < 0 {
		logger.Debug("Delete %s: not indexed", fileID)
		return false, nil
	}
	record := idx.Files[pos]

	idx.Files = append(idx.Files[:pos], idx.Files[pos+1:]...)
	idx.LastUpdated = s.now()
	if err := s.docStore.SaveIndex(ctx, idx); err != nil {
		return false, fmt.Errorf("save index: %w", err)
	}
	s.cache.Invalidate()

	if err := s.docStore.DeleteFileData(ctx, record); err != nil {
		// The index no longer references the data; leftovers are harmless.
		logger.Warn("Delete data of %s: %v", record.ID, err)
	}
	logger.Info("Deleted %s (%s)", record.ID, record.OriginalName)
	return true, nil
}

// Rechunk re-extracts a file's chunks from its stored original. Existing
// embeddings are dropped and regenerated on the next cache load.
func (s *DocumentService) Rechunk(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	record, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	content, err := s.docStore.ReadOriginal(ctx, record.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("read original of %s: %w", fileID, err)
	}
	doc, err := s.normalise(ctx, record.OriginalName, record.Extension, content)
	if err != nil {
		return nil, err
	}
	chunks := s.extractor.Extract(record.ID, doc.Content)

	lock := s.cache.StoreLock()
	lock.Lock()
	defer lock.Unlock()

	idx, err := s.docStore.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	pos := idx.Find(fileID)
	if pos < 0 {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}
	current := idx.Files[pos]

	data := &domain.ChunkData{FileID: current.ID, Chunks: chunks, GeneratedAt: s.now()}
	if err := s.docStore.WriteChunks(ctx, current, data); err != nil {
		return nil, fmt.Errorf("write chunks: %w", err)
	}

	idx.Files[pos].ChunkCount = len(chunks)
	idx.LastUpdated = s.now()
	if err := s.docStore.SaveIndex(ctx, idx); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	s.cache.Invalidate()

	updated := idx.Files[pos]
	logger.Info("Rechunked %s: %d chunks", updated.ID, updated.ChunkCount)
	return &updated, nil
}

// AssignStage moves a file into a stage, or out of any stage when stageID
// is nil or empty. The original and chunk data move to the stage directory.
func (s *DocumentService) AssignStage(ctx context.Context, fileID string, stageID *string) (*domain.FileRecord, error) {
	var stage *domain.Stage
	if stageID != nil && *stageID != "" {
		st, err := s.stageStore.GetStage(ctx, *stageID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("stage", "unknown stage %q", *stageID)
		}
		if err != nil {
			return nil, fmt.Errorf("get stage: %w", err)
		}
		stage = st
	} else {
		stageID = nil
	}

	lock := s.cache.StoreLock()
	lock.Lock()
	defer lock.Unlock()

	idx, err := s.docStore.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	pos := idx.Find(fileID)
	if pos < 0 {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}
	record := idx.Files[pos]

	newPath := domain.OriginalPath(domain.StageDir(stage), record.ID, record.Extension)
	if newPath != record.StoragePath {
		if err := s.docStore.MoveFileData(ctx, record, newPath); err != nil {
			return nil, fmt.Errorf("move %s: %w", record.ID, err)
		}
	}

	idx.Files[pos].StageID = stageID
	idx.Files[pos].StoragePath = newPath
	idx.LastUpdated = s.now()
	if err := s.docStore.SaveIndex(ctx, idx); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	s.cache.Invalidate()

	updated := idx.Files[pos]
	return &updated, nil
}

// Chunks returns the stored chunks of a file.
func (s *DocumentService) Chunks(ctx context.Context, fileID string) ([]domain.Chunk, error) {
	record, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	data, err := s.docStore.ReadChunks(ctx, *record)
	if err != nil {
		return nil, fmt.Errorf("read chunks of %s: %w", fileID, err)
	}
	return data.Chunks, nil
}

// Checksum returns the hex BLAKE2b-256 digest of content.
func Checksum(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func sameStage(a, b *string) bool {
	if a == nil || *a == "" {
		return b == nil || *b == ""
	}
	return b != nil && *a == *b
}
