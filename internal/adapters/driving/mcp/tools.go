package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// defaultLimit is used when a tool call does not set one.
const defaultLimit = 5

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Mode  string `json:"mode,omitempty" jsonschema:"keyword, semantic or hybrid (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	FileID     string  `json:"file_id"`
	ChunkID    string  `json:"chunk_id"`
	FileName   string  `json:"file_name"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity,omitempty"`
	Method     string  `json:"method"`
	IsQA       bool    `json:"is_question_answer,omitempty"`
}

// ContextInput is the input schema for the get_context tool.
type ContextInput struct {
	Query      string `json:"query" jsonschema:"the user question to gather context for"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of passages (default 5)"`
}

// ContextOutput is the output schema for the get_context tool.
type ContextOutput struct {
	Passages []string `json:"passages"`
	Count    int      `json:"count"`
}

// ListFilesInput is the input schema for the list_files tool.
type ListFilesInput struct{}

// ListFilesOutput is the output schema for the list_files tool.
type ListFilesOutput struct {
	Files []FileOutput `json:"files"`
	Count int          `json:"count"`
}

// FileOutput describes one uploaded file.
type FileOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	Chunks     int    `json:"chunks"`
	StageID    string `json:"stage_id,omitempty"`
	UploadedAt string `json:"uploaded_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_context",
		Description: "Retrieve the knowledge base passages most relevant to a question",
	}, s.handleGetContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the knowledge base and return scored chunks with their source files",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_files",
		Description: "List the files uploaded to the knowledge base",
	}, s.handleListFiles)
}

// handleGetContext handles the get_context tool invocation. It never fails:
// an unavailable knowledge base yields no passages.
func (s *Server) handleGetContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	limit := input.MaxResults
	if limit <= 0 {
		limit = defaultLimit
	}

	passages := s.ports.Search.GetContext(ctx, input.Query, limit)
	if passages == nil {
		passages = []string{}
	}
	return nil, ContextOutput{Passages: passages, Count: len(passages)}, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	opts := domain.SearchOptions{Limit: limit, Mode: domain.SearchMode(input.Mode)}
	if input.Mode != "" && !opts.Mode.IsValid() {
		return nil, SearchOutput{}, fmt.Errorf("unknown search mode %q", input.Mode)
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			FileID:     results[i].FileID,
			ChunkID:    results[i].ChunkID,
			FileName:   results[i].SourceFileName,
			Text:       results[i].Text,
			Score:      results[i].Score,
			Similarity: results[i].Similarity,
			Method:     results[i].Method,
			IsQA:       results[i].IsQuestionAnswer,
		}
	}

	return nil, output, nil
}

// handleListFiles handles the list_files tool invocation.
func (s *Server) handleListFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	if s.ports.Document == nil {
		return nil, ListFilesOutput{}, errors.New("document service not configured")
	}

	files, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListFilesOutput{}, fmt.Errorf("listing files: %w", err)
	}

	output := ListFilesOutput{Files: toFileOutputs(files), Count: len(files)}
	return nil, output, nil
}

func toFileOutputs(files []domain.FileRecord) []FileOutput {
	out := make([]FileOutput, len(files))
	for i := range files {
		out[i] = FileOutput{
			ID:         files[i].ID,
			Name:       files[i].OriginalName,
			Type:       files[i].Type.String(),
			Size:       files[i].Size,
			Chunks:     files[i].ChunkCount,
			UploadedAt: files[i].UploadedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if files[i].HasStage() {
			out[i].StageID = *files[i].StageID
		}
	}
	return out
}
