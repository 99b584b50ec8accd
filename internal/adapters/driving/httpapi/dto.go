package httpapi

import (
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type fileResponse struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Type         string    `json:"type"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	ChunkCount   int       `json:"chunk_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
	StageID      *string   `json:"stage_id"`
	Checksum     string    `json:"checksum"`
}

func toFileResponse(f domain.FileRecord) fileResponse {
	return fileResponse{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		Type:         f.Type.String(),
		Extension:    f.Extension,
		Size:         f.Size,
		ChunkCount:   f.ChunkCount,
		UploadedAt:   f.UploadedAt,
		StageID:      f.StageID,
		Checksum:     f.Checksum,
	}
}

type chunkResponse struct {
	ID                 string   `json:"id"`
	Position           int      `json:"position"`
	Text               string   `json:"text"`
	Keywords           []string `json:"keywords"`
	IsQuestionAnswer   bool     `json:"is_question_answer"`
	EmbeddingGenerated bool     `json:"embedding_generated"`
	EmbeddingProvider  string   `json:"embedding_provider,omitempty"`
}

func toChunkResponse(c domain.Chunk) chunkResponse {
	return chunkResponse{
		ID:                 c.ID,
		Position:           c.Position,
		Text:               c.Text,
		Keywords:           c.Keywords,
		IsQuestionAnswer:   c.IsQuestionAnswer,
		EmbeddingGenerated: c.HasEmbedding(),
		EmbeddingProvider:  c.EmbeddingProvider,
	}
}

type stageResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toStageResponse(st domain.Stage) stageResponse {
	return stageResponse{
		ID:        st.ID,
		Name:      st.Name,
		IsActive:  st.IsActive,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

type searchResultResponse struct {
	Text             string  `json:"text"`
	Score            float64 `json:"score"`
	Similarity       float64 `json:"similarity"`
	SourceFileName   string  `json:"source_file_name"`
	FileID           string  `json:"file_id"`
	ChunkID          string  `json:"chunk_id"`
	IsQuestionAnswer bool    `json:"is_question_answer"`
	IsPartial        bool    `json:"is_partial"`
	Method           string  `json:"method"`
}

func toSearchResultResponse(r domain.SearchResult) searchResultResponse {
	return searchResultResponse{
		Text:             r.Text,
		Score:            r.Score,
		Similarity:       r.Similarity,
		SourceFileName:   r.SourceFileName,
		FileID:           r.FileID,
		ChunkID:          r.ChunkID,
		IsQuestionAnswer: r.IsQuestionAnswer,
		IsPartial:        r.IsPartial,
		Method:           r.Method,
	}
}

type reportResponse struct {
	FilesLoaded       int      `json:"files_loaded"`
	FilesSkipped      []string `json:"files_skipped"`
	ChunksLoaded      int      `json:"chunks_loaded"`
	ChunksEmbedded    int      `json:"chunks_embedded"`
	ChunksPending     int      `json:"chunks_pending"`
	EmbeddingFailures int      `json:"embedding_failures"`
	ProviderAvailable bool     `json:"provider_available"`
	Partial           bool     `json:"partial"`
	DurationMS        int64    `json:"duration_ms"`
}

func toReportResponse(r domain.ReloadReport) reportResponse {
	skipped := make([]string, len(r.FilesSkipped))
	for i, f := range r.FilesSkipped {
		skipped[i] = f.FileID + ": " + f.Reason
	}
	return reportResponse{
		FilesLoaded:       r.FilesLoaded,
		FilesSkipped:      skipped,
		ChunksLoaded:      r.ChunksLoaded,
		ChunksEmbedded:    r.ChunksEmbedded,
		ChunksPending:     r.ChunksPending,
		EmbeddingFailures: len(r.EmbeddingFailures),
		ProviderAvailable: r.ProviderAvailable,
		Partial:           r.Partial(),
		DurationMS:        r.Duration.Milliseconds(),
	}
}

type cacheResponse struct {
	SnapshotID string         `json:"snapshot_id"`
	Generation uint64         `json:"generation"`
	Fresh      bool           `json:"fresh"`
	Chunks     int            `json:"chunks"`
	Embedded   int            `json:"embedded"`
	LoadedAt   *time.Time     `json:"loaded_at"`
	Loads      uint64         `json:"loads"`
	Report     reportResponse `json:"report"`
}

func toCacheResponse(s domain.CacheStats) cacheResponse {
	resp := cacheResponse{
		SnapshotID: s.SnapshotID,
		Generation: s.Generation,
		Fresh:      s.Fresh,
		Chunks:     s.Chunks,
		Embedded:   s.Embedded,
		Loads:      s.Loads,
		Report:     toReportResponse(s.Report),
	}
	if !s.LoadedAt.IsZero() {
		loaded := s.LoadedAt
		resp.LoadedAt = &loaded
	}
	return resp
}

type createStageRequest struct {
	Name string `json:"name"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type renameStageRequest struct {
	Name string `json:"name"`
}

type assignStageRequest struct {
	StageID *string `json:"stage_id"`
}

type contextRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type regenerateRequest struct {
	FileIDs []string `json:"file_ids"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
