package httpapi

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type mockDocuments struct {
	files   []domain.FileRecord
	chunks  []domain.Chunk
	added   *domain.UploadRequest
	addErr  error
	deleted bool
	err     error
}

func (m *mockDocuments) Add(_ context.Context, req domain.UploadRequest) (*domain.FileRecord, error) {
	m.added = &req
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &domain.FileRecord{ID: "new-id", OriginalName: req.Name, Size: int64(len(req.Content)), StageID: req.StageID}, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	for i := range m.files {
		if m.files[i].ID == id {
			return &m.files[i], nil
		}
	}
	return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
}

func (m *mockDocuments) List(_ context.Context) ([]domain.FileRecord, error) {
	return m.files, m.err
}

func (m *mockDocuments) Delete(_ context.Context, _ string) (bool, error) {
	return m.deleted, m.err
}

func (m *mockDocuments) Rechunk(ctx context.Context, id string) (*domain.FileRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.Get(ctx, id)
}

func (m *mockDocuments) AssignStage(ctx context.Context, id string, stageID *string) (*domain.FileRecord, error) {
	rec, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.StageID = stageID
	return rec, nil
}

func (m *mockDocuments) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

type mockStages struct {
	stages []domain.Stage
	err    error
}

func (m *mockStages) List(_ context.Context) ([]domain.Stage, error) { return m.stages, m.err }

func (m *mockStages) Get(_ context.Context, id string) (*domain.Stage, error) {
	for i := range m.stages {
		if m.stages[i].ID == id {
			return &m.stages[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStages) Create(_ context.Context, name string) (*domain.Stage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Stage{ID: "stage-new", Name: name, IsActive: true}, nil
}

func (m *mockStages) SetActive(ctx context.Context, id string, active bool) (*domain.Stage, error) {
	st, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st.IsActive = active
	return st, nil
}

func (m *mockStages) Rename(ctx context.Context, id, name string) (*domain.Stage, error) {
	st, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Name = name
	return st, nil
}

func (m *mockStages) Delete(_ context.Context, _ string) error { return m.err }

func (m *mockStages) Import(_ context.Context, _ []byte) ([]domain.Stage, error) {
	return m.stages, m.err
}

type mockSearch struct {
	results   []domain.SearchResult
	passages  []string
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
	lastMax   int
}

func (m *mockSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearch) GetContext(_ context.Context, query string, maxResults int) []string {
	m.lastQuery = query
	m.lastMax = maxResults
	return m.passages
}

type mockCache struct {
	stats       domain.CacheStats
	report      domain.ReloadReport
	regenerated []string
	err         error
}

func (m *mockCache) LoadAll(_ context.Context) (*domain.Snapshot, error) { return nil, m.err }
func (m *mockCache) Reload(_ context.Context) (*domain.Snapshot, error)  { return nil, m.err }
func (m *mockCache) Invalidate()                                         {}
func (m *mockCache) Current() *domain.Snapshot                           { return nil }

func (m *mockCache) EnsureEmbeddings(_ context.Context, chunks []domain.Chunk) ([]domain.Chunk, domain.EmbedReport) {
	return chunks, domain.EmbedReport{}
}

func (m *mockCache) Regenerate(_ context.Context, fileIDs []string) (domain.ReloadReport, error) {
	m.regenerated = fileIDs
	return m.report, m.err
}

func (m *mockCache) Stats() domain.CacheStats { return m.stats }
