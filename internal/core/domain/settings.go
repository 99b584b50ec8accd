package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Enabled toggles embedding generation. Keyword search works without it.
	Enabled bool

	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of chunks sent per provider request.
	BatchSize int

	// RequestsPerSecond caps provider calls. Zero disables the limiter.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Enabled || !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RetrySettings configures capped exponential backoff for provider calls.
type RetrySettings struct {
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// Mode is the default retrieval mode.
	Mode SearchMode

	// Limit is the default number of results.
	Limit int

	// MinSimilarity drops semantic hits below this cosine similarity.
	MinSimilarity float64

	// WarmTimeout bounds how long a search waits for the cache to load.
	WarmTimeout time.Duration
}

// UploadSettings holds upload validation limits.
type UploadSettings struct {
	// MaxSizeMB is the largest accepted payload in mebibytes.
	MaxSizeMB int
}

// MaxBytes returns the size limit in bytes.
func (u UploadSettings) MaxBytes() int64 {
	return int64(u.MaxSizeMB) << 20
}

// ChunkingSettings selects and configures the chunk extractor.
type ChunkingSettings struct {
	// Extractor names the registered extractor (e.g. "chunker").
	Extractor string

	// MinParagraphLength is the shortest paragraph kept, in characters.
	MinParagraphLength int

	// MaxChunkLength is the longest chunk before sentence splitting.
	MaxChunkLength int

	// Stopwords are extra words dropped from chunk keywords.
	Stopwords []string
}

// Options returns the settings as a generic extractor config map.
// Zero values are omitted so extractor defaults apply.
func (c ChunkingSettings) Options() map[string]any {
	opts := make(map[string]any)
	if c.MinParagraphLength > 0 {
		opts["min_paragraph_length"] = c.MinParagraphLength
	}
	if c.MaxChunkLength > 0 {
		opts["max_chunk_length"] = c.MaxChunkLength
	}
	if len(c.Stopwords) > 0 {
		opts["stopwords"] = c.Stopwords
	}
	return opts
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DataDir is where the index, originals and chunk data live.
	DataDir string

	// ServerAddr is the listen address for the admin HTTP API.
	ServerAddr string

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Retry holds provider retry settings.
	Retry RetrySettings

	// Search holds search behaviour settings.
	Search SearchSettings

	// Upload holds upload limits.
	Upload UploadSettings

	// Chunking holds chunk extractor settings.
	Chunking ChunkingSettings
}

// Default limits.
const (
	DefaultSearchLimit      = 5
	DefaultEmbedBatchSize   = 64
	DefaultMaxUploadSizeMB  = 10
	DefaultMinSimilarity    = 0.2
	DefaultServerAddr       = "127.0.0.1:8088"
	DefaultRetryMaxAttempts = 4
	DefaultChunkExtractor   = "chunker"
)

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings are left unconfigured; keyword search works out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		ServerAddr: DefaultServerAddr,
		Embedding: EmbeddingSettings{
			BatchSize:         DefaultEmbedBatchSize,
			RequestsPerSecond: 5,
		},
		Retry: RetrySettings{
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     8 * time.Second,
			MaxAttempts:  DefaultRetryMaxAttempts,
		},
		Search: SearchSettings{
			Mode:          SearchModeHybrid,
			Limit:         DefaultSearchLimit,
			MinSimilarity: DefaultMinSimilarity,
			WarmTimeout:   10 * time.Second,
		},
		Upload: UploadSettings{
			MaxSizeMB: DefaultMaxUploadSizeMB,
		},
		Chunking: ChunkingSettings{
			Extractor: DefaultChunkExtractor,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
