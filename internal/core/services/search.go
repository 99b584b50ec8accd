package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/textnorm"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// rrfK is the reciprocal rank fusion constant.
const rrfK = 60

// snapshotSource is the part of the cache the search service reads.
type snapshotSource interface {
	LoadAll(ctx context.Context) (*domain.Snapshot, error)
	Current() *domain.Snapshot
}

// SearchService ranks visible chunks by keyword and semantic relevance.
type SearchService struct {
	cache      snapshotSource
	stageStore driven.StageStore
	keyword    *KeywordScorer
	semantic   *SemanticRetriever
	settings   domain.SearchSettings
}

// NewSearchService creates a new search service.
// The semantic retriever is optional (can be nil).
func NewSearchService(
	cache snapshotSource,
	stageStore driven.StageStore,
	semantic *SemanticRetriever,
	settings domain.SearchSettings,
) *SearchService {
	defaults := domain.DefaultAppSettings().Search
	if !settings.Mode.IsValid() {
		settings.Mode = defaults.Mode
	}
	if settings.Limit <= 0 {
		settings.Limit = defaults.Limit
	}
	if settings.WarmTimeout <= 0 {
		settings.WarmTimeout = defaults.WarmTimeout
	}
	return &SearchService{
		cache:      cache,
		stageStore: stageStore,
		keyword:    NewKeywordScorer(),
		semantic:   semantic,
		settings:   settings,
	}
}

// GetContext returns the texts of the best visible chunks for query.
// It never fails: errors are logged and yield an empty list.
func (s *SearchService) GetContext(ctx context.Context, query string, maxResults int) (texts []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("get context: recovered from panic: %v", r)
			texts = []string{}
		}
	}()

	results, err := s.Search(ctx, query, domain.SearchOptions{Limit: maxResults})
	if err != nil {
		logger.Error("get context: %v", err)
		return []string{}
	}

	texts = make([]string, 0, len(results))
	for i := range results {
		texts = append(texts, results[i].Text)
	}
	return texts
}

// Search ranks the visible chunks of the current snapshot against query.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	defer logger.Timed("search %q", query)()

	limit := opts.Limit
	if limit <= 0 {
		limit = s.settings.Limit
	}
	// Request more results internally to leave room for deduplication
	internalLimit := limit * 2

	snap, err := s.warm(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	entries, err := s.visibleEntries(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Snapshot %s: %d entries, %d visible", snap.ID, snap.Len(), len(entries))

	s.keyword.Prepare(snap)
	mode := s.effectiveMode(opts, snap)
	logger.Info("Effective search mode: %s", mode.Description())

	var ranked []ScoredEntry
	switch mode {
	case domain.SearchModeSemantic:
		ranked = s.semanticSearch(ctx, entries, query, internalLimit)
	case domain.SearchModeHybrid:
		ranked = s.hybridSearch(ctx, entries, query, internalLimit)
	default:
		ranked = s.keyword.Rank(entries, query, internalLimit)
	}

	results := toResults(dedupe(ranked), limit)
	logger.Info("Final results: %d", len(results))
	return results, nil
}

// warm returns a fresh snapshot, waiting at most the warm timeout. When the
// load fails or times out, the last published snapshot is used.
func (s *SearchService) warm(ctx context.Context) (*domain.Snapshot, error) {
	wctx, cancel := context.WithTimeout(ctx, s.settings.WarmTimeout)
	defer cancel()

	start := time.Now()
	snap, err := s.cache.LoadAll(wctx)
	if err == nil {
		logger.Debug("Cache warm in %s", time.Since(start))
		return snap, nil
	}

	if cur := s.cache.Current(); cur != nil {
		logger.Warn("Cache warm failed (%v), using snapshot %s", err, cur.ID)
		return cur, nil
	}
	return nil, fmt.Errorf("warm cache: %w", err)
}

// visibleEntries filters snapshot entries by the current stage set, so a
// stage toggle applies even before the next load publishes.
func (s *SearchService) visibleEntries(ctx context.Context, snap *domain.Snapshot) ([]domain.SnapshotEntry, error) {
	stages, err := s.stageStore.ListStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	set := domain.NewStageSet(stages)

	entries := make([]domain.SnapshotEntry, 0, snap.Len())
	for i := range snap.Entries {
		if domain.IsFileVisible(snap.Entries[i].File, set) {
			entries = append(entries, snap.Entries[i])
		}
	}
	return entries, nil
}

// effectiveMode determines the search mode based on options and the
// snapshot. Hybrid degrades to keyword when no embeddings are available.
// An explicit semantic request is honoured and may return nothing.
func (s *SearchService) effectiveMode(opts domain.SearchOptions, snap *domain.Snapshot) domain.SearchMode {
	mode := opts.Mode
	if !mode.IsValid() {
		mode = s.settings.Mode
	}

	if mode == domain.SearchModeHybrid && (!s.semantic.Available() || !snap.HasEmbeddings()) {
		logger.Debug("No embeddings available, degrading hybrid search to keyword")
		return domain.SearchModeKeyword
	}
	return mode
}

// semanticSearch runs the semantic retriever. Failures yield no results.
func (s *SearchService) semanticSearch(
	ctx context.Context, entries []domain.SnapshotEntry, query string, limit int,
) []ScoredEntry {
	if !s.semantic.Available() {
		logger.Warn("Semantic search unavailable: no embedding provider")
		return nil
	}
	results, err := s.semantic.FindRelevantChunks(ctx, entries, query, limit)
	if err != nil {
		logger.Warn("Semantic search failed: %v", err)
		return nil
	}
	return results
}

// hybridSearch runs keyword and semantic ranking in parallel and merges
// them with reciprocal rank fusion.
func (s *SearchService) hybridSearch(
	ctx context.Context, entries []domain.SnapshotEntry, query string, limit int,
) []ScoredEntry {
	logger.Debug("Hybrid search: running keyword and semantic ranking in parallel")

	var keywordResults, semanticResults []ScoredEntry
	var semanticErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		keywordResults = s.keyword.Rank(entries, query, limit)
	}()

	go func() {
		defer wg.Done()
		semanticResults, semanticErr = s.semantic.FindRelevantChunks(ctx, entries, query, limit)
	}()

	wg.Wait()

	if semanticErr != nil {
		logger.Warn("Hybrid search: semantic ranking failed, using keyword results only: %v", semanticErr)
		return keywordResults
	}

	logger.Debug("Hybrid search: merging %d keyword + %d semantic results with RRF",
		len(keywordResults), len(semanticResults))
	return reciprocalRankFusion(keywordResults, semanticResults, rrfK)
}

// reciprocalRankFusion merges two ranked lists. k is the constant (typically
// 60) that keeps top ranks from dominating. Ties keep first-seen order,
// keyword list first.
func reciprocalRankFusion(keywordList, semanticList []ScoredEntry, k int) []ScoredEntry {
	merged := make(map[string]*ScoredEntry)
	var order []string

	add := func(list []ScoredEntry) {
		for rank, se := range list {
			rrf := 1.0 / float64(k+rank+1)
			id := se.Entry.Chunk.ID
			existing, ok := merged[id]
			if !ok {
				entry := se
				entry.Score = rrf
				merged[id] = &entry
				order = append(order, id)
				continue
			}
			existing.Score += rrf
			existing.Method = domain.MethodHybrid
			if se.Similarity > existing.Similarity {
				existing.Similarity = se.Similarity
			}
			// Confirmed semantically, so no longer a partial keyword hit.
			existing.Partial = existing.Partial && se.Partial
		}
	}
	add(keywordList)
	add(semanticList)

	results := make([]ScoredEntry, 0, len(order))
	for _, id := range order {
		results = append(results, *merged[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// dedupe drops repeated chunk IDs and repeated texts, keeping the first.
func dedupe(ranked []ScoredEntry) []ScoredEntry {
	seenIDs := make(map[string]bool, len(ranked))
	seenText := make(map[string]bool, len(ranked))
	out := ranked[:0:0]
	for _, se := range ranked {
		key := strings.Join(strings.Fields(textnorm.Fold(se.Entry.Chunk.Text)), " ")
		if seenIDs[se.Entry.Chunk.ID] || seenText[key] {
			continue
		}
		seenIDs[se.Entry.Chunk.ID] = true
		seenText[key] = true
		out = append(out, se)
	}
	return out
}

// toResults converts ranked entries to search results, truncated to limit.
func toResults(ranked []ScoredEntry, limit int) []domain.SearchResult {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, se := range ranked {
		c := se.Entry.Chunk
		results = append(results, domain.SearchResult{
			Text:             c.Text,
			Score:            se.Score,
			Similarity:       se.Similarity,
			SourceFileName:   se.Entry.File.OriginalName,
			FileID:           c.FileID,
			ChunkID:          c.ID,
			IsQuestionAnswer: c.IsQuestionAnswer,
			IsPartial:        se.Partial,
			Method:           se.Method,
		})
	}
	return results
}
