package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file size limit.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Files

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.ports.Document.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]fileResponse, len(files))
	for i := range files {
		out[i] = toFileResponse(files[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpload accepts a multipart form with a "file" part and optional
// "stage_id" and "type" fields.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, domain.NewValidationError("file", "upload exceeds %d bytes", s.maxUpload))
			return
		}
		writeError(w, domain.NewValidationError("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, domain.NewValidationError("file", "read upload: %v", err))
		return
	}

	req := domain.UploadRequest{
		Name:         header.Filename,
		Content:      content,
		DeclaredType: domain.FileType(r.FormValue("type")),
	}
	if stageID := strings.TrimSpace(r.FormValue("stage_id")); stageID != "" {
		req.StageID = &stageID
	}

	record, err := s.ports.Document.Add(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFileResponse(*record))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	record, err := s.ports.Document.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(*record))
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.ports.Document.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, fmt.Errorf("file %s: %w", id, domain.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRechunk(w http.ResponseWriter, r *http.Request) {
	record, err := s.ports.Document.Rechunk(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(*record))
}

func (s *Server) handleAssignStage(w http.ResponseWriter, r *http.Request) {
	var req assignStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	record, err := s.ports.Document.AssignStage(r.Context(), chi.URLParam(r, "id"), req.StageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(*record))
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.ports.Document.Chunks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]chunkResponse, len(chunks))
	for i := range chunks {
		out[i] = toChunkResponse(chunks[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Stages

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := s.ports.Stage.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]stageResponse, len(stages))
	for i := range stages {
		out[i] = toStageResponse(stages[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	var req createStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	stage, err := s.ports.Stage.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStageResponse(*stage))
}

func (s *Server) handleSetStageActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	stage, err := s.ports.Stage.SetActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStageResponse(*stage))
}

func (s *Server) handleRenameStage(w http.ResponseWriter, r *http.Request) {
	var req renameStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	stage, err := s.ports.Stage.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStageResponse(*stage))
}

func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Stage.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, domain.NewValidationError("q", "query is required"))
		return
	}

	var opts domain.SearchOptions
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, domain.NewValidationError("limit", "limit must be a positive integer"))
			return
		}
		opts.Limit = limit
	}
	if raw := q.Get("mode"); raw != "" {
		opts.Mode = domain.SearchMode(raw)
		if !opts.Mode.IsValid() {
			writeError(w, domain.NewValidationError("mode", "unknown search mode %q", raw))
			return
		}
	}

	results, err := s.ports.Search.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]searchResultResponse, len(results))
	for i := range results {
		out[i] = toSearchResultResponse(results[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// handleContext returns chat context passages. It answers 200 with an empty
// list when nothing relevant is available.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	passages := s.ports.Search.GetContext(r.Context(), req.Query, req.MaxResults)
	if passages == nil {
		passages = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"passages": passages})
}

// Embeddings and cache

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	report, err := s.ports.Cache.Regenerate(r.Context(), req.FileIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toCacheResponse(s.ports.Cache.Stats()))
}
