package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/fsutil"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// IndexFile is the name of the index inside the data directory.
const IndexFile = "index.json"

const filePerm = 0o600

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps the index, originals and chunk data under a data directory.
type DocumentStore struct {
	dir string
	now func() time.Time
}

// NewDocumentStore creates a store rooted at dataDir.
// If dataDir is empty, defaults to ~/.sercha-kb/data.
func NewDocumentStore(dataDir string) (*DocumentStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-kb", "data")
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "files"), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &DocumentStore{dir: dataDir, now: time.Now}, nil
}

// Dir returns the data directory.
func (s *DocumentStore) Dir() string {
	return s.dir
}

// LoadIndex reads index.json. A missing index is empty; a malformed one is
// quarantined and served as empty.
func (s *DocumentStore) LoadIndex(ctx context.Context) (*domain.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, IndexFile)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.Index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var f indexFile
	if err := json.Unmarshal(raw, &f); err != nil {
		quarantine := path + ".corrupt-" + strconv.FormatInt(s.now().Unix(), 10)
		if rerr := os.Rename(path, quarantine); rerr != nil {
			return nil, fmt.Errorf("%w: %v (quarantine failed: %v)", domain.ErrCorruptIndex, err, rerr)
		}
		logger.WarnOnce(quarantine, "index is corrupt (%v), moved to %s and starting empty", err, quarantine)
		return &domain.Index{}, nil
	}
	return f.toDomain(), nil
}

// SaveIndex writes index.json atomically.
func (s *DocumentStore) SaveIndex(ctx context.Context, idx *domain.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(toIndexFile(idx), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := fsutil.WriteFile(filepath.Join(s.dir, IndexFile), raw, filePerm); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// WriteOriginal stores the uploaded bytes at the data-relative path.
func (s *DocumentStore) WriteOriginal(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(abs, content, filePerm); err != nil {
		return fmt.Errorf("writing original: %w", err)
	}
	return nil
}

// ReadOriginal returns the bytes stored at the data-relative path.
func (s *DocumentStore) ReadOriginal(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("original %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading original: %w", err)
	}
	return content, nil
}

// WriteChunks stores the chunk data next to the file's original.
func (s *DocumentStore) WriteChunks(ctx context.Context, file domain.FileRecord, data *domain.ChunkData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := s.resolve(domain.ChunkDataPath(file.StoragePath))
	if err != nil {
		return err
	}
	raw, err := json.Marshal(toChunkFile(data))
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}
	if err := fsutil.WriteFile(abs, raw, filePerm); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	return nil
}

// ReadChunks returns the chunk data of a file.
func (s *DocumentStore) ReadChunks(ctx context.Context, file domain.FileRecord) (*domain.ChunkData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := s.resolve(domain.ChunkDataPath(file.StoragePath))
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("chunks of %s: %w", file.ID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	var f chunkFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("chunks of %s: %w: %v", file.ID, domain.ErrCorruptChunkData, err)
	}
	if f.FileID == "" {
		f.FileID = file.ID
	}
	return f.toDomain(), nil
}

// DeleteFileData removes the original and chunk data. Missing files are ignored.
func (s *DocumentStore) DeleteFileData(ctx context.Context, file domain.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, rel := range []string{file.StoragePath, domain.ChunkDataPath(file.StoragePath)} {
		abs, err := s.resolve(rel)
		if err != nil {
			return err
		}
		if err := fsutil.RemoveIfExists(abs); err != nil {
			return fmt.Errorf("removing %s: %w", rel, err)
		}
	}
	return nil
}

// MoveFileData relocates the original and chunk data to newPath.
// A missing chunk file is not an error; a missing original is.
func (s *DocumentStore) MoveFileData(ctx context.Context, file domain.FileRecord, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if newPath == file.StoragePath {
		return nil
	}

	if err := s.move(file.StoragePath, newPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("original %s: %w", file.StoragePath, domain.ErrNotFound)
		}
		return err
	}
	err := s.move(domain.ChunkDataPath(file.StoragePath), domain.ChunkDataPath(newPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DocumentStore) move(from, to string) error {
	src, err := s.resolve(from)
	if err != nil {
		return err
	}
	dst, err := s.resolve(to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(to), err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s: %w", from, err)
	}
	return nil
}

// resolve maps a data-relative slash path onto the data directory,
// refusing paths that would escape it.
func (s *DocumentStore) resolve(rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if rel == "" || !filepath.IsLocal(local) {
		return "", domain.NewValidationError("path", "%q is not inside the data directory", rel)
	}
	return filepath.Join(s.dir, local), nil
}
