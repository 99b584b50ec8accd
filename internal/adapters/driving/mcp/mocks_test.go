package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	passages []string
	err      error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastMax   int
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) GetContext(_ context.Context, query string, maxResults int) []string {
	m.lastQuery = query
	m.lastMax = maxResults
	return m.passages
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	files  []domain.FileRecord
	chunks []domain.Chunk
	err    error
}

func (m *mockDocumentService) Add(_ context.Context, _ domain.UploadRequest) (*domain.FileRecord, error) {
	return nil, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	for i := range m.files {
		if m.files[i].ID == id {
			return &m.files[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.FileRecord, error) {
	return m.files, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) (bool, error) {
	return false, m.err
}

func (m *mockDocumentService) Rechunk(_ context.Context, _ string) (*domain.FileRecord, error) {
	return nil, m.err
}

func (m *mockDocumentService) AssignStage(_ context.Context, _ string, _ *string) (*domain.FileRecord, error) {
	return nil, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}
