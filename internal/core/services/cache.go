package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/retry"
)

// Ensure CacheManager implements the interface.
var _ driving.CacheService = (*CacheManager)(nil)

const (
	// loadKey is the single-flight key shared by every load.
	loadKey = "snapshot"

	// DefaultReadConcurrency bounds parallel chunk data reads during a load.
	DefaultReadConcurrency = 8
)

// CacheConfig tunes the cache manager.
type CacheConfig struct {
	// BatchSize is the number of chunks per embedding request.
	BatchSize int

	// Retry is the backoff policy for embedding requests.
	Retry retry.Policy

	// ReadConcurrency bounds parallel chunk data reads.
	ReadConcurrency int
}

// DefaultCacheConfig returns the standard cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BatchSize:       domain.DefaultEmbedBatchSize,
		Retry:           retry.DefaultPolicy(),
		ReadConcurrency: DefaultReadConcurrency,
	}
}

// CacheManager holds the searchable snapshot of every visible chunk.
//
// Loads are single-flight: concurrent callers share one storage pass and
// receive the same *domain.Snapshot. The snapshot is published by atomic
// pointer swap, so readers never lock. Invalidate bumps a generation
// counter; a snapshot is fresh only while its generation is current.
type CacheManager struct {
	docStore   driven.DocumentStore
	stageStore driven.StageStore
	embedder   driven.EmbeddingService
	cfg        CacheConfig

	current    atomic.Pointer[domain.Snapshot]
	generation atomic.Uint64
	loads      atomic.Uint64
	group      singleflight.Group

	// providerDown is set while the embedding provider is failing.
	providerDown atomic.Bool
	warnKey      string

	// storeMu serialises read-modify-write cycles on chunk data and the
	// index. DocumentService shares it.
	storeMu sync.Mutex
}

// NewCacheManager creates a cache manager. embedder may be nil, in which
// case chunks are served without embeddings.
func NewCacheManager(
	docStore driven.DocumentStore,
	stageStore driven.StageStore,
	embedder driven.EmbeddingService,
	cfg CacheConfig,
) *CacheManager {
	defaults := DefaultCacheConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = defaults.Retry
	}
	if cfg.ReadConcurrency <= 0 {
		cfg.ReadConcurrency = defaults.ReadConcurrency
	}

	m := &CacheManager{
		docStore:   docStore,
		stageStore: stageStore,
		embedder:   embedder,
		cfg:        cfg,
	}
	m.warnKey = fmt.Sprintf("embedding-provider-%p", m)
	return m
}

// LoadAll returns the current snapshot when it is fresh, otherwise it
// performs or joins a load. A joined load that began before the latest
// invalidation is not accepted; a new load is started once it settles.
func (m *CacheManager) LoadAll(ctx context.Context) (*domain.Snapshot, error) {
	want := m.generation.Load()
	if snap := m.current.Load(); snap != nil && snap.Generation() >= want {
		return snap, nil
	}

	snap, err := m.Reload(ctx)
	for err == nil && snap.Generation() < want {
		logger.Debug("Joined load %s predates generation %d, reloading", snap.ID, want)
		snap, err = m.Reload(ctx)
	}
	return snap, err
}

// Reload forces a load. Callers arriving while a load is in flight join it
// and receive the identical snapshot. The load itself ignores cancellation
// of the caller that started it; each caller stops waiting when its own
// context ends.
func (m *CacheManager) Reload(ctx context.Context) (*domain.Snapshot, error) {
	ch := m.group.DoChan(loadKey, func() (any, error) {
		return m.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		snap, ok := res.Val.(*domain.Snapshot)
		if !ok {
			return nil, errors.New("cache load returned no snapshot")
		}
		return snap, nil
	}
}

// Invalidate marks the current snapshot stale. It never blocks on a load.
func (m *CacheManager) Invalidate() {
	gen := m.generation.Add(1)
	logger.Debug("Cache invalidated (generation %d)", gen)
}

// Current returns the last published snapshot, or nil before the first load.
func (m *CacheManager) Current() *domain.Snapshot {
	return m.current.Load()
}

// Stats describes the cache state.
func (m *CacheManager) Stats() domain.CacheStats {
	gen := m.generation.Load()
	stats := domain.CacheStats{
		Generation: gen,
		Loads:      m.loads.Load(),
	}
	if snap := m.current.Load(); snap != nil {
		stats.SnapshotID = snap.ID
		stats.Fresh = snap.Generation() == gen
		stats.Chunks = snap.Len()
		stats.Embedded = snap.EmbeddedCount()
		stats.LoadedAt = snap.LoadedAt
		stats.Report = snap.Report
	}
	return stats
}

// load reads every visible file's chunks, fills missing embeddings,
// persists what changed and publishes the result.
func (m *CacheManager) load(ctx context.Context) (*domain.Snapshot, error) {
	start := time.Now()
	gen := m.generation.Load()
	logger.Section("Cache Load")

	idx, err := m.docStore.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	stages, err := m.stageStore.ListStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	visible := domain.ActiveFiles(idx.Files, domain.NewStageSet(stages))
	logger.Debug("Files: %d indexed, %d visible", len(idx.Files), len(visible))

	data, skipped, err := m.readChunkData(ctx, visible)
	if err != nil {
		return nil, err
	}

	report := domain.ReloadReport{
		FilesSkipped:      skipped,
		ProviderAvailable: m.embedder != nil,
	}

	halted := false
	embeddedAny, failedTransient := false, false
	for i := range visible {
		if data[i] == nil || m.embedder == nil {
			continue
		}
		pending := len(data[i].Chunks) - data[i].EmbeddedCount()
		if pending == 0 {
			continue
		}
		if halted {
			report.EmbeddingFailures = append(report.EmbeddingFailures, domain.BatchFailure{
				FileID:    visible[i].ID,
				Chunks:    pending,
				Reason:    "skipped: embedding provider unavailable",
				Transient: true,
			})
			continue
		}

		chunks, embedReport := m.EnsureEmbeddings(ctx, data[i].Chunks)
		report.EmbeddingFailures = append(report.EmbeddingFailures, embedReport.Failures...)
		halted = embedReport.Halted
		if !embedReport.ProviderAvailable {
			failedTransient = true
		}
		if embedReport.Embedded == 0 {
			continue
		}
		embeddedAny = true
		data[i].Chunks = chunks
		if err := m.persistEmbeddings(ctx, visible[i], chunks); err != nil {
			logger.Warn("Persist embeddings for %s: %v", visible[i].ID, err)
		}
	}

	var entries []domain.SnapshotEntry
	for i := range visible {
		if data[i] == nil {
			continue
		}
		report.FilesLoaded++
		for _, c := range data[i].Chunks {
			entries = append(entries, domain.SnapshotEntry{Chunk: c, File: visible[i]})
		}
	}

	if halted || (failedTransient && !embeddedAny) {
		report.ProviderAvailable = false
	}

	snap := domain.NewSnapshot(ulid.Make().String(), entries, gen, domain.ReloadReport{})
	report.ChunksLoaded = snap.Len()
	report.ChunksEmbedded = snap.EmbeddedCount()
	report.ChunksPending = report.ChunksLoaded - report.ChunksEmbedded
	report.Duration = time.Since(start)
	snap.Report = report

	m.current.Store(snap)
	m.loads.Add(1)

	logger.Info("Cache loaded: %d chunks (%d embedded) from %d files in %s",
		report.ChunksLoaded, report.ChunksEmbedded, report.FilesLoaded, report.Duration)
	if report.Partial() {
		logger.Warn("Cache load partial: %d files skipped, %d embedding batches failed",
			len(report.FilesSkipped), len(report.EmbeddingFailures))
	}

	return snap, nil
}

// readChunkData reads chunk data for files in parallel. Unreadable files
// are reported and left nil; only cancellation aborts the read.
func (m *CacheManager) readChunkData(
	ctx context.Context, files []domain.FileRecord,
) ([]*domain.ChunkData, []domain.FileFailure, error) {
	data := make([]*domain.ChunkData, len(files))
	reasons := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.ReadConcurrency)

	for i := range files {
		g.Go(func() error {
			d, err := m.docStore.ReadChunks(gctx, files[i])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				reasons[i] = err.Error()
				return nil
			}
			for j := range d.Chunks {
				d.Chunks[j].Normalise()
			}
			data[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("read chunk data: %w", err)
	}

	var skipped []domain.FileFailure
	for i, reason := range reasons {
		if reason != "" {
			logger.Warn("Skipping %s (%s): %s", files[i].ID, files[i].OriginalName, reason)
			skipped = append(skipped, domain.FileFailure{FileID: files[i].ID, Reason: reason})
		}
	}
	return data, skipped, nil
}

// persistEmbeddings writes new embeddings back to a file's chunk data.
// The stored data is re-read under the store lock and merged by chunk ID,
// so a concurrent rechunk is never overwritten with stale chunks.
func (m *CacheManager) persistEmbeddings(ctx context.Context, file domain.FileRecord, chunks []domain.Chunk) error {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	stored, err := m.docStore.ReadChunks(ctx, file)
	if err != nil {
		return err
	}

	byID := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		if c.HasEmbedding() {
			byID[c.ID] = c
		}
	}

	changed := false
	for i := range stored.Chunks {
		c := &stored.Chunks[i]
		if c.HasEmbedding() {
			continue
		}
		if src, ok := byID[c.ID]; ok && src.Text == c.Text {
			c.SetEmbedding(src.Embedding, src.EmbeddingProvider)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	stored.GeneratedAt = time.Now()
	return m.docStore.WriteChunks(ctx, file, stored)
}

// EnsureEmbeddings returns a copy of chunks in which every chunk lacking a
// vector has been embedded where possible.
//
// Chunks are sent in batches, each under the retry policy. A permanent or
// exhausted transient error fails only its batch. Auth errors and
// cancellation halt the pass and the remaining batches are reported as
// skipped.
func (m *CacheManager) EnsureEmbeddings(
	ctx context.Context, chunks []domain.Chunk,
) ([]domain.Chunk, domain.EmbedReport) {
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)

	var missing []int
	for i := range out {
		out[i].Normalise()
		if !out[i].HasEmbedding() {
			missing = append(missing, i)
		}
	}

	report := domain.EmbedReport{
		Requested:         len(missing),
		ProviderAvailable: m.embedder != nil,
	}
	if len(missing) == 0 || m.embedder == nil {
		return out, report
	}
	defer logger.Timed("embedding %d chunks", len(missing))()

	provider := m.embedder.ModelName()
	transientFailures := 0

	for start := 0; start < len(missing); start += m.cfg.BatchSize {
		end := min(start+m.cfg.BatchSize, len(missing))
		batch := missing[start:end]

		if report.Halted {
			report.Failures = append(report.Failures, domain.BatchFailure{
				FileID:    out[batch[0]].FileID,
				Chunks:    len(batch),
				Reason:    "skipped: embedding provider unavailable",
				Transient: true,
			})
			continue
		}

		texts := make([]string, len(batch))
		for k, idx := range batch {
			texts[k] = out[idx].Text
		}

		vecs, err := m.embedBatch(ctx, texts)
		if err != nil {
			transient := domain.IsTransient(err)
			report.Failures = append(report.Failures, domain.BatchFailure{
				FileID:    out[batch[0]].FileID,
				Chunks:    len(batch),
				Reason:    err.Error(),
				Transient: transient,
			})
			switch {
			case domain.IsAuthFailure(err) || ctx.Err() != nil:
				report.Halted = true
				m.markProviderDown(err)
			case transient:
				transientFailures++
				m.markProviderDown(err)
			default:
				logger.Warn("Embedding batch failed (%d chunks): %v", len(batch), err)
			}
			continue
		}

		for k, idx := range batch {
			out[idx].SetEmbedding(vecs[k], provider)
		}
		report.Embedded += len(batch)
	}

	if report.Halted || (transientFailures > 0 && report.Embedded == 0) {
		report.ProviderAvailable = false
	}
	if report.Embedded > 0 {
		m.markProviderUp()
	}
	return out, report
}

// embedBatch embeds texts under the retry policy and checks the shape of
// the response.
func (m *CacheManager) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := retry.Do(ctx, m.cfg.Retry, func(ctx context.Context) error {
		v, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		vecs = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vecs), len(texts))
	}
	dims := m.embedder.Dimensions()
	for _, v := range vecs {
		if len(v) == 0 || (dims > 0 && len(v) != dims) {
			return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), dims)
		}
	}
	return vecs, nil
}

func (m *CacheManager) markProviderDown(err error) {
	m.providerDown.Store(true)
	logger.WarnOnce(m.warnKey, "Embedding provider unavailable, serving keyword results only: %v", err)
}

func (m *CacheManager) markProviderUp() {
	if m.providerDown.CompareAndSwap(true, false) {
		logger.Info("Embedding provider recovered")
	}
	logger.ResetOnce(m.warnKey)
}

// ProviderDown reports whether the last embedding attempt found the
// provider unavailable.
func (m *CacheManager) ProviderDown() bool {
	return m.providerDown.Load()
}

// Regenerate drops and rebuilds the embeddings of the given files, or of
// every indexed file when fileIDs is empty, then reloads the cache.
func (m *CacheManager) Regenerate(ctx context.Context, fileIDs []string) (domain.ReloadReport, error) {
	if m.embedder == nil {
		return domain.ReloadReport{}, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Regenerate Embeddings")

	idx, err := m.docStore.LoadIndex(ctx)
	if err != nil {
		return domain.ReloadReport{}, fmt.Errorf("load index: %w", err)
	}

	files, err := selectFiles(idx, fileIDs)
	if err != nil {
		return domain.ReloadReport{}, err
	}

	var failures []domain.BatchFailure
	var skipped []domain.FileFailure
	halted := false

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return domain.ReloadReport{}, err
		}

		data, err := m.docStore.ReadChunks(ctx, file)
		if err != nil {
			skipped = append(skipped, domain.FileFailure{FileID: file.ID, Reason: err.Error()})
			continue
		}
		for i := range data.Chunks {
			data.Chunks[i].StripEmbedding()
		}

		if !halted {
			chunks, report := m.EnsureEmbeddings(ctx, data.Chunks)
			failures = append(failures, report.Failures...)
			halted = report.Halted
			data.Chunks = chunks
		} else {
			failures = append(failures, domain.BatchFailure{
				FileID:    file.ID,
				Chunks:    len(data.Chunks),
				Reason:    "skipped: embedding provider unavailable",
				Transient: true,
			})
		}

		data.GeneratedAt = time.Now()
		if err := m.writeChunksLocked(ctx, file, data); err != nil {
			return domain.ReloadReport{}, fmt.Errorf("write chunks for %s: %w", file.ID, err)
		}
	}

	m.Invalidate()
	snap, err := m.LoadAll(ctx)
	if err != nil {
		return domain.ReloadReport{}, err
	}

	report := snap.Report
	report.FilesSkipped = append(skipped, report.FilesSkipped...)
	report.EmbeddingFailures = append(failures, report.EmbeddingFailures...)
	report.ProviderAvailable = report.ProviderAvailable && !halted
	return report, nil
}

// StoreLock returns the lock serialising read-modify-write cycles on the
// document store.
func (m *CacheManager) StoreLock() sync.Locker {
	return &m.storeMu
}

func (m *CacheManager) writeChunksLocked(ctx context.Context, file domain.FileRecord, data *domain.ChunkData) error {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	return m.docStore.WriteChunks(ctx, file, data)
}

// selectFiles returns the records named by ids, or every record when ids
// is empty. Unknown ids are an error.
func selectFiles(idx *domain.Index, ids []string) ([]domain.FileRecord, error) {
	if len(ids) == 0 {
		return idx.Files, nil
	}
	files := make([]domain.FileRecord, 0, len(ids))
	for _, id := range ids {
		pos := idx.Find(id)
		if pos < 0 {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		files = append(files, idx.Files[pos])
	}
	return files, nil
}
