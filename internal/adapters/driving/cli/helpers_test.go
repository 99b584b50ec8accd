package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
)

var testUploadedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

// mockDocumentService records calls and serves a fixed file set.
type mockDocumentService struct {
	files      []domain.FileRecord
	chunks     map[string][]domain.Chunk
	lastUpload *domain.UploadRequest
	lastAssign *string
	err        error
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{
		files: []domain.FileRecord{
			{
				ID:           "file-1",
				OriginalName: "handbook.md",
				Type:         domain.FileTypeText,
				Extension:    ".md",
				Size:         2048,
				ChunkCount:   2,
				UploadedAt:   testUploadedAt,
				Checksum:     "abc123",
			},
			{
				ID:           "file-2",
				OriginalName: "faq.txt",
				Type:         domain.FileTypeText,
				Extension:    ".txt",
				Size:         512,
				ChunkCount:   1,
				UploadedAt:   testUploadedAt,
				StageID:      strPtr("stage-1"),
				Checksum:     "def456",
			},
		},
		chunks: map[string][]domain.Chunk{
			"file-1": {
				{ID: "chunk-1", FileID: "file-1", Position: 0, Text: "Holidays are booked in the HR portal."},
				{
					ID: "chunk-2", FileID: "file-1", Position: 1, Text: "Q: Who approves leave? A: Your manager.",
					IsQuestionAnswer: true, Embedding: []float32{0.1, 0.2}, EmbeddingGenerated: true,
				},
			},
		},
	}
}

func (m *mockDocumentService) find(id string) (*domain.FileRecord, error) {
	for i := range m.files {
		if m.files[i].ID == id {
			rec := m.files[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Add(_ context.Context, req domain.UploadRequest) (*domain.FileRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastUpload = &req
	return &domain.FileRecord{
		ID:           "file-new",
		OriginalName: req.Name,
		Type:         domain.FileTypeText,
		Size:         int64(len(req.Content)),
		ChunkCount:   3,
		StageID:      req.StageID,
	}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.find(id)
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.FileRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.files, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, err := m.find(id)
	return err == nil, nil
}

func (m *mockDocumentService) Rechunk(_ context.Context, id string) (*domain.FileRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.find(id)
}

func (m *mockDocumentService) AssignStage(_ context.Context, id string, stageID *string) (*domain.FileRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	rec, err := m.find(id)
	if err != nil {
		return nil, err
	}
	m.lastAssign = stageID
	rec.StageID = stageID
	return rec, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, id string) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, err := m.find(id); err != nil {
		return nil, err
	}
	return m.chunks[id], nil
}

// mockStageService keeps stages in a slice.
type mockStageService struct {
	stages     []domain.Stage
	importData []byte
	err        error
}

func newMockStageService() *mockStageService {
	return &mockStageService{
		stages: []domain.Stage{
			{ID: "stage-1", Name: "onboarding", IsActive: true},
			{ID: "stage-2", Name: "drafts", IsActive: false},
		},
	}
}

func (m *mockStageService) index(id string) int {
	for i := range m.stages {
		if m.stages[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *mockStageService) List(_ context.Context) ([]domain.Stage, error) {
	return m.stages, m.err
}

func (m *mockStageService) Get(_ context.Context, id string) (*domain.Stage, error) {
	i := m.index(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	st := m.stages[i]
	return &st, nil
}

func (m *mockStageService) Create(_ context.Context, name string) (*domain.Stage, error) {
	if m.err != nil {
		return nil, m.err
	}
	st := domain.Stage{ID: "stage-new", Name: name, IsActive: true}
	m.stages = append(m.stages, st)
	return &st, nil
}

func (m *mockStageService) SetActive(_ context.Context, id string, active bool) (*domain.Stage, error) {
	i := m.index(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	m.stages[i].IsActive = active
	st := m.stages[i]
	return &st, nil
}

func (m *mockStageService) Rename(_ context.Context, id, name string) (*domain.Stage, error) {
	i := m.index(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	m.stages[i].Name = name
	st := m.stages[i]
	return &st, nil
}

func (m *mockStageService) Delete(_ context.Context, id string) error {
	i := m.index(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.stages = append(m.stages[:i], m.stages[i+1:]...)
	return nil
}

func (m *mockStageService) Import(_ context.Context, data []byte) ([]domain.Stage, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.importData = data
	return []domain.Stage{{ID: "stage-3", Name: "imported", IsActive: true}}, nil
}

// mockSearchService returns canned results and records options.
type mockSearchService struct {
	results  []domain.SearchResult
	passages []string
	lastOpts domain.SearchOptions
	lastMax  int
}

func newMockSearchService() *mockSearchService {
	return &mockSearchService{
		results: []domain.SearchResult{
			{
				Text:           "Holidays are booked in the HR portal.",
				Score:          12.5,
				SourceFileName: "handbook.md",
				FileID:         "file-1",
				ChunkID:        "chunk-1",
				Method:         domain.MethodKeyword,
			},
		},
		passages: []string{"Holidays are booked in the HR portal.", "Your manager approves leave."},
	}
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, nil
}

func (m *mockSearchService) GetContext(_ context.Context, _ string, maxResults int) []string {
	m.lastMax = maxResults
	if maxResults < len(m.passages) {
		return m.passages[:maxResults]
	}
	return m.passages
}

// mockSearchServiceError fails every search.
type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(context.Context, string, domain.SearchOptions) ([]domain.SearchResult, error) {
	return nil, errors.New("index unavailable")
}

func (m *mockSearchServiceError) GetContext(context.Context, string, int) []string {
	return nil
}

// mockCacheService reports fixed stats.
type mockCacheService struct {
	stats       domain.CacheStats
	report      domain.ReloadReport
	regenerated []string
	loads       int
	invalidated int
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{
		stats: domain.CacheStats{
			SnapshotID: "snap-1",
			Generation: 3,
			Fresh:      true,
			Chunks:     3,
			Embedded:   1,
			Report:     domain.ReloadReport{FilesLoaded: 2, ChunksLoaded: 3, ChunksEmbedded: 1, ProviderAvailable: true},
		},
		report: domain.ReloadReport{
			FilesLoaded:       2,
			ChunksLoaded:      3,
			ChunksEmbedded:    2,
			ChunksPending:     1,
			ProviderAvailable: true,
			EmbeddingFailures: []domain.BatchFailure{{FileID: "file-2", Chunks: 1, Reason: "rate limited", Transient: true}},
		},
	}
}

func (m *mockCacheService) LoadAll(context.Context) (*domain.Snapshot, error) {
	m.loads++
	return domain.NewSnapshot("snap-1", nil, m.stats.Generation, m.stats.Report), nil
}

func (m *mockCacheService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	return m.LoadAll(ctx)
}

func (m *mockCacheService) Invalidate() { m.invalidated++ }

func (m *mockCacheService) Current() *domain.Snapshot { return nil }

func (m *mockCacheService) EnsureEmbeddings(_ context.Context, chunks []domain.Chunk) ([]domain.Chunk, domain.EmbedReport) {
	return chunks, domain.EmbedReport{Requested: len(chunks)}
}

func (m *mockCacheService) Regenerate(_ context.Context, fileIDs []string) (domain.ReloadReport, error) {
	m.regenerated = fileIDs
	return m.report, nil
}

func (m *mockCacheService) Stats() domain.CacheStats { return m.stats }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	document *mockDocumentService
	stage    *mockStageService
	search   *mockSearchService
	cache    *mockCacheService
	settings *services.SettingsService
}

var testSvcs *testServices

// setupTestServices installs mock services and resets global flags on cleanup.
func setupTestServices() func() {
	testSvcs = &testServices{
		document: newMockDocumentService(),
		stage:    newMockStageService(),
		search:   newMockSearchService(),
		cache:    newMockCacheService(),
		settings: services.NewSettingsService(memory.NewConfigStore(), nil),
	}

	SetServices(&Services{
		Document:   testSvcs.document,
		Stage:      testSvcs.stage,
		Search:     testSvcs.search,
		Cache:      testSvcs.cache,
		Settings:   testSvcs.settings,
		DataDir:    "/tmp/sercha-kb-test",
		ServerAddr: "127.0.0.1:0",
		SearchOptions: domain.SearchOptions{
			Limit: 5,
			Mode:  domain.SearchModeHybrid,
		},
	})

	return func() {
		SetServices(nil)
		testSvcs = nil
		resetFlags()
	}
}

func resetFlags() {
	jsonOutput = false
	verbose = false
	dataDirFlag = ""
	searchLimit = 0
	searchMode = ""
	contextMax = 5
	uploadStage = ""
	uploadType = ""
	assignStage = ""
	serveAddr = ""
	serveNoWatch = false
	rootCmd.SetArgs(nil)
}

// executeCommand runs the root command with args and returns combined output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
