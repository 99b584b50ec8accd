package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/retry"
)

// SemanticRetriever ranks snapshot entries by cosine similarity to the
// query embedding.
type SemanticRetriever struct {
	embedder      driven.EmbeddingService
	policy        retry.Policy
	minSimilarity float64
}

// NewSemanticRetriever creates a semantic retriever. embedder may be nil,
// in which case the retriever reports itself unavailable.
func NewSemanticRetriever(embedder driven.EmbeddingService, policy retry.Policy, minSimilarity float64) *SemanticRetriever {
	return &SemanticRetriever{
		embedder:      embedder,
		policy:        policy,
		minSimilarity: minSimilarity,
	}
}

// Available reports whether query embeddings can be generated.
func (r *SemanticRetriever) Available() bool {
	return r != nil && r.embedder != nil
}

// FindRelevantChunks embeds query and returns the topK entries most similar
// to it, highest first. Entries without an embedding, or with one of a
// different dimension, are skipped. Hits below the minimum similarity are
// dropped.
func (r *SemanticRetriever) FindRelevantChunks(
	ctx context.Context, entries []domain.SnapshotEntry, query string, topK int,
) ([]ScoredEntry, error) {
	if !r.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" || len(entries) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = domain.DefaultSearchLimit
	}

	var queryVec []float32
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.embedder.Embed(ctx, query)
		if err != nil {
			return err
		}
		queryVec = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("embed query: %w", domain.ErrDimensionMismatch)
	}

	results := make([]ScoredEntry, 0, len(entries))
	skipped := 0
	for i := range entries {
		c := entries[i].Chunk
		if !c.HasEmbedding() || len(c.Embedding) != len(queryVec) {
			skipped++
			continue
		}
		sim := CosineSimilarity(queryVec, c.Embedding)
		results = append(results, ScoredEntry{
			Entry:      entries[i],
			Score:      sim,
			Similarity: sim,
			Method:     domain.MethodSemantic,
		})
	}
	if skipped > 0 {
		logger.Debug("Semantic search: skipped %d entries without a matching embedding", skipped)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}

	kept := results[:0]
	for _, res := range results {
		if res.Similarity >= r.minSimilarity {
			kept = append(kept, res)
		}
	}
	return kept, nil
}

// CosineSimilarity returns the cosine of the angle between a and b,
// accumulated in float64. Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
