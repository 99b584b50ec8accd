package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedEnabled      = "embedding.enabled"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedBatchSize    = "embedding.batch_size"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyRetryInitial      = "retry.initial_delay"
	keyRetryMax          = "retry.max_delay"
	keyRetryAttempts     = "retry.max_attempts"
	keySearchMode        = "search.mode"
	keySearchLimit       = "search.limit"
	keySearchMinSim      = "search.min_similarity"
	keySearchWarmTimeout = "search.warm_timeout"
	keyUploadMaxSize     = "upload.max_size_mb"
	keyDataDir           = "storage.data_dir"
	keyServerAddr        = "server.addr"
	keyChunkExtractor    = "chunking.extractor"
	keyChunkMinPara      = "chunking.min_paragraph_length"
	keyChunkMaxLen       = "chunking.max_chunk_length"
	keyChunkStopwords    = "chunking.stopwords"
)

// Environment fallbacks, consulted when the config file leaves a value empty.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvDataDir   = "SERCHA_KB_DATA_DIR"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
)

// settingKinds lists every settable key with its value type.
var settingKinds = map[string]settingKind{
	keyEmbedEnabled:      kindBool,
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedBatchSize:    kindInt,
	keyEmbedRPS:          kindFloat,
	keyRetryInitial:      kindDuration,
	keyRetryMax:          kindDuration,
	keyRetryAttempts:     kindInt,
	keySearchMode:        kindString,
	keySearchLimit:       kindInt,
	keySearchMinSim:      kindFloat,
	keySearchWarmTimeout: kindDuration,
	keyUploadMaxSize:     kindInt,
	keyDataDir:           kindString,
	keyServerAddr:        kindString,
	keyChunkExtractor:    kindString,
	keyChunkMinPara:      kindInt,
	keyChunkMaxLen:       kindInt,
	keyChunkStopwords:    kindList,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		DataDir:    s.getString(keyDataDir, s.getenv(EnvDataDir)),
		ServerAddr: s.getString(keyServerAddr, defaults.ServerAddr),
		Embedding: domain.EmbeddingSettings{
			Enabled:           s.getBool(keyEmbedEnabled, defaults.Embedding.Enabled),
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		Retry: domain.RetrySettings{
			InitialDelay: s.getDuration(keyRetryInitial, defaults.Retry.InitialDelay),
			MaxDelay:     s.getDuration(keyRetryMax, defaults.Retry.MaxDelay),
			MaxAttempts:  s.getInt(keyRetryAttempts, defaults.Retry.MaxAttempts),
		},
		Search: domain.SearchSettings{
			Mode:          s.getSearchMode(defaults.Search.Mode),
			Limit:         s.getInt(keySearchLimit, defaults.Search.Limit),
			MinSimilarity: s.getFloat(keySearchMinSim, defaults.Search.MinSimilarity),
			WarmTimeout:   s.getDuration(keySearchWarmTimeout, defaults.Search.WarmTimeout),
		},
		Upload: domain.UploadSettings{
			MaxSizeMB: s.getInt(keyUploadMaxSize, defaults.Upload.MaxSizeMB),
		},
		Chunking: domain.ChunkingSettings{
			Extractor:          s.getString(keyChunkExtractor, defaults.Chunking.Extractor),
			MinParagraphLength: s.configStore.GetInt(keyChunkMinPara),
			MaxChunkLength:     s.configStore.GetInt(keyChunkMaxLen),
			Stopwords:          s.configStore.GetStringSlice(keyChunkStopwords),
		},
	}

	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = s.getenv(EnvOpenAIKey)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyDataDir, settings.DataDir},
		{keyServerAddr, settings.ServerAddr},
		{keyEmbedEnabled, settings.Embedding.Enabled},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyRetryInitial, settings.Retry.InitialDelay.String()},
		{keyRetryMax, settings.Retry.MaxDelay.String()},
		{keyRetryAttempts, settings.Retry.MaxAttempts},
		{keySearchMode, settings.Search.Mode.String()},
		{keySearchLimit, settings.Search.Limit},
		{keySearchMinSim, settings.Search.MinSimilarity},
		{keySearchWarmTimeout, settings.Search.WarmTimeout.String()},
		{keyUploadMaxSize, settings.Upload.MaxSizeMB},
		{keyChunkExtractor, settings.Chunking.Extractor},
		{keyChunkMinPara, settings.Chunking.MinParagraphLength},
		{keyChunkMaxLen, settings.Chunking.MaxChunkLength},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if len(settings.Chunking.Stopwords) > 0 {
		if err := s.configStore.Set(keyChunkStopwords, settings.Chunking.Stopwords); err != nil {
			return fmt.Errorf("save %s: %w", keyChunkStopwords, err)
		}
	}

	// Never persist a key that only came from the environment.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.getenv(EnvOpenAIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	return nil
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value according to the key's type, validates it and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return domain.NewValidationError(key, "unknown setting")
	}

	value = strings.TrimSpace(value)
	var parsed any

	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return domain.NewValidationError(key, "expected a non-negative integer, got %q", value)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.NewValidationError(key, "expected a number, got %q", value)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return domain.NewValidationError(key, "expected true or false, got %q", value)
		}
		parsed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return domain.NewValidationError(key, "expected a duration such as 500ms or 8s, got %q", value)
		}
		parsed = d.String()
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		parsed = items
	}

	switch key {
	case keySearchMode:
		if !domain.SearchMode(value).IsValid() {
			return domain.NewValidationError(key, "invalid search mode: %s", value)
		}
	case keyEmbedProvider:
		if value != "" && !domain.AIProvider(value).IsValid() {
			return domain.NewValidationError(key, "invalid embedding provider: %s", value)
		}
	case keySearchMinSim:
		if f, _ := parsed.(float64); f < -1 || f > 1 {
			return domain.NewValidationError(key, "must be between -1 and 1")
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetSearchMode updates the search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Search.Mode = mode

	// Auto-enable embeddings if semantic ranking is needed
	if mode.RequiresEmbedding() && settings.Embedding.Provider.IsValid() {
		settings.Embedding.Enabled = true
	}

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		apiKey = s.getenv(EnvOpenAIKey)
		if apiKey == "" {
			return fmt.Errorf("API key required for %s", provider)
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Enabled = true
	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are valid for the configured mode.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Search.Mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", settings.Search.Mode)
	}

	// Hybrid degrades to keyword on its own; semantic-only cannot.
	if settings.Search.Mode == domain.SearchModeSemantic && !settings.Embedding.IsConfigured() {
		return fmt.Errorf(
			"search mode %q requires embedding provider to be configured",
			settings.Search.Mode.Description(),
		)
	}

	if settings.Embedding.Enabled && settings.Embedding.BatchSize <= 0 {
		return domain.NewValidationError(keyEmbedBatchSize, "must be positive")
	}
	if settings.Search.Limit <= 0 {
		return domain.NewValidationError(keySearchLimit, "must be positive")
	}
	if settings.Upload.MaxSizeMB <= 0 {
		return domain.NewValidationError(keyUploadMaxSize, "must be positive")
	}

	return nil
}

// RequiresEmbedding returns true if current mode needs embedding.
func (s *SettingsService) RequiresEmbedding() bool {
	settings, err := s.Get()
	if err != nil {
		return false
	}
	return settings.Search.Mode.RequiresEmbedding()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig checks that the configured provider answers and returns vectors of the configured dimension.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	val := s.configStore.GetString(keySearchMode)
	if val == "" {
		return defaultVal
	}
	mode := domain.SearchMode(val)
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
