package domain

// SearchMode defines how search combines retrieval methods.
type SearchMode string

// Available search modes.
const (
	// SearchModeKeyword uses only the tiered keyword scorer.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeSemantic uses only embedding similarity.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeHybrid merges keyword and semantic rankings.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeKeyword, SearchModeSemantic, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeSemantic || m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeKeyword:
		return "Keyword (tiered lexical scoring)"
	case SearchModeSemantic:
		return "Semantic (embedding similarity)"
	case SearchModeHybrid:
		return "Hybrid (keyword + semantic)"
	default:
		return unknownDescription
	}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Mode selects the retrieval method. Empty uses the configured default.
	Mode SearchMode
}

// Result methods.
const (
	MethodKeyword  = "keyword"
	MethodSemantic = "semantic"
	MethodHybrid   = "hybrid"
)

// SearchResult represents a single ranked chunk.
type SearchResult struct {
	// Text is the chunk text for prompt context.
	Text string

	// Score is the keyword score, or the fused score for hybrid results.
	Score float64

	// Similarity is the cosine similarity when the chunk was ranked semantically.
	Similarity float64

	// SourceFileName is the original name of the owning file.
	SourceFileName string

	// FileID links to the owning file.
	FileID string

	// ChunkID identifies the matched chunk.
	ChunkID string

	// IsQuestionAnswer marks question/answer chunks.
	IsQuestionAnswer bool

	// IsPartial marks chunks found only by the fallback substring pass.
	IsPartial bool

	// Method is the retrieval method that produced the result.
	Method string
}
