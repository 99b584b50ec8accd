package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Values are copied on the way in and out so callers cannot alias stored state.
type DocumentStore struct {
	mu        sync.RWMutex
	index     domain.Index
	originals map[string][]byte
	chunks    map[string]domain.ChunkData

	// chunkReads counts ReadChunks calls, for tests asserting load counts.
	chunkReads int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		originals: make(map[string][]byte),
		chunks:    make(map[string]domain.ChunkData),
	}
}

// LoadIndex returns a copy of the stored index.
func (s *DocumentStore) LoadIndex(_ context.Context) (*domain.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := domain.Index{
		Files:       make([]domain.FileRecord, len(s.index.Files)),
		LastUpdated: s.index.LastUpdated,
	}
	copy(idx.Files, s.index.Files)
	return &idx, nil
}

// SaveIndex replaces the stored index.
func (s *DocumentStore) SaveIndex(_ context.Context, idx *domain.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]domain.FileRecord, len(idx.Files))
	copy(files, idx.Files)
	s.index = domain.Index{Files: files, LastUpdated: idx.LastUpdated}
	return nil
}

// WriteOriginal stores the uploaded bytes at path.
func (s *DocumentStore) WriteOriginal(_ context.Context, path string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originals[path] = append([]byte(nil), content...)
	return nil
}

// ReadOriginal returns the bytes stored at path.
func (s *DocumentStore) ReadOriginal(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.originals[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

// WriteChunks stores the chunk data for a file.
func (s *DocumentStore) WriteChunks(_ context.Context, file domain.FileRecord, data *domain.ChunkData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[file.ID] = copyChunkData(*data)
	return nil
}

// ReadChunks returns the chunk data for a file.
func (s *DocumentStore) ReadChunks(_ context.Context, file domain.FileRecord) (*domain.ChunkData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkReads++
	data, ok := s.chunks[file.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.FileID == corruptMarker {
		return nil, domain.ErrCorruptChunkData
	}
	out := copyChunkData(data)
	return &out, nil
}

// DeleteFileData removes the original and chunk data of a file.
func (s *DocumentStore) DeleteFileData(_ context.Context, file domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.originals, file.StoragePath)
	delete(s.chunks, file.ID)
	return nil
}

// MoveFileData relocates the original of a file. Chunk data is keyed by
// file ID and needs no move.
func (s *DocumentStore) MoveFileData(_ context.Context, file domain.FileRecord, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.originals[file.StoragePath]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.originals, file.StoragePath)
	s.originals[newPath] = content
	return nil
}

// ChunkReads returns how many times chunk data has been read.
func (s *DocumentStore) ChunkReads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunkReads
}

// HasOriginal reports whether bytes are stored at path.
func (s *DocumentStore) HasOriginal(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.originals[path]
	return ok
}

// CorruptChunks replaces a file's chunk data with an unreadable marker,
// so subsequent reads fail with domain.ErrCorruptChunkData.
func (s *DocumentStore) CorruptChunks(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[fileID] = domain.ChunkData{FileID: corruptMarker}
}

const corruptMarker = "\x00corrupt"

func copyChunkData(data domain.ChunkData) domain.ChunkData {
	out := domain.ChunkData{
		FileID:      data.FileID,
		GeneratedAt: data.GeneratedAt,
		Chunks:      make([]domain.Chunk, len(data.Chunks)),
	}
	for i, c := range data.Chunks {
		c.Keywords = append([]string(nil), c.Keywords...)
		if c.Embedding != nil {
			c.Embedding = append([]float32(nil), c.Embedding...)
		}
		out.Chunks[i] = c
	}
	return out
}
