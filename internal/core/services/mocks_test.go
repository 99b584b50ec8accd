package services

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/retry"
	"github.com/custodia-labs/sercha-kb/internal/textnorm"
)

// mockEmbedder returns deterministic vectors and can be told to fail.
type mockEmbedder struct {
	mu sync.Mutex

	dims    int
	model   string
	vectors map[string][]float32 // fixed vectors by text
	err     error                // returned by every call when set
	failOn  map[string]error     // returned by batches containing the text

	// block, when set, holds EmbedBatch until closed. entered is signalled
	// once per blocked call.
	block   chan struct{}
	entered chan struct{}

	embedCalls int
	batchCalls int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{
		dims:    dims,
		model:   "mock-embed",
		vectors: make(map[string][]float32),
		failOn:  make(map[string]error),
	}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32((seed>>(uint(i)%32))&0xff) + 1
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if block != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err, ok := m.failOn[text]; ok {
			return nil, err
		}
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int           { return m.dims }
func (m *mockEmbedder) ModelName() string         { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return m.err }
func (m *mockEmbedder) Close() error              { return nil }

func (m *mockEmbedder) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockEmbedder) BatchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

func (m *mockEmbedder) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// errProviderDown is a transient provider failure.
var errProviderDown = domain.NewProviderError("mock", http.StatusServiceUnavailable, errors.New("service unavailable"))

// fastRetry keeps retry tests quick.
func fastRetry() retry.Policy {
	return retry.Policy{
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  3,
	}
}

func testCacheConfig() CacheConfig {
	cfg := DefaultCacheConfig()
	cfg.Retry = fastRetry()
	return cfg
}

// plainTextRegistry hands upload bytes through as text.
type plainTextRegistry struct {
	err error
}

func (r *plainTextRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &driven.NormaliseResult{
		Document: domain.Document{Title: raw.Name, Content: string(raw.Content)},
	}, nil
}

func (r *plainTextRegistry) Register(driven.Normaliser) {}

func (r *plainTextRegistry) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown"}
}

// seedFile indexes a file whose chunks are the given texts.
func seedFile(
	t *testing.T, store *memory.DocumentStore, id string, stageID *string, texts ...string,
) domain.FileRecord {
	t.Helper()
	ctx := context.Background()

	record := domain.FileRecord{
		ID:           id,
		OriginalName: id + ".txt",
		Type:         domain.FileTypeText,
		Extension:    ".txt",
		Size:         int64(len(strings.Join(texts, "\n\n"))),
		ChunkCount:   len(texts),
		UploadedAt:   time.Now(),
		StageID:      stageID,
		StoragePath:  domain.OriginalPath(domain.UnstagedDir, id, ".txt"),
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:       id + "-" + string(rune('a'+i)),
			FileID:   id,
			Position: i,
			Text:     text,
			Keywords: textnorm.Keywords(text),
		}
	}

	require.NoError(t, store.WriteOriginal(ctx, record.StoragePath, []byte(strings.Join(texts, "\n\n"))))
	require.NoError(t, store.WriteChunks(ctx, record, &domain.ChunkData{FileID: id, Chunks: chunks}))

	idx, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	idx.Files = append(idx.Files, record)
	require.NoError(t, store.SaveIndex(ctx, idx))
	return record
}

// seedStage saves a stage and returns its ID.
func seedStage(t *testing.T, store *memory.StageStore, id, name string, active bool) *string {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.SaveStage(context.Background(), domain.Stage{
		ID:        id,
		Name:      name,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return &id
}

// invalidateCounter counts Invalidate calls.
type invalidateCounter struct {
	mu    sync.Mutex
	count int
	lock  sync.Mutex
}

func (c *invalidateCounter) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *invalidateCounter) StoreLock() sync.Locker { return &c.lock }

func (c *invalidateCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
