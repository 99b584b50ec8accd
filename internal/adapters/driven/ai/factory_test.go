package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// ollamaServer answers the Ollama tags endpoint so Ping succeeds.
func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "disabled settings returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "nomic-embed-text",
			},
			wantNil: true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Enabled:  true,
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Enabled:  true,
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Enabled:  true,
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{
				Enabled:  true,
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService_RateLimited(t *testing.T) {
	settings := &domain.EmbeddingSettings{
		Enabled:           true,
		Provider:          domain.AIProviderOllama,
		Model:             "all-minilm",
		RequestsPerSecond: 5,
	}

	svc, err := CreateEmbeddingService(settings)
	require.NoError(t, err)
	_, wrapped := svc.(*ratelimit.EmbeddingService)
	assert.True(t, wrapped)
	assert.Equal(t, 384, svc.Dimensions())

	settings.RequestsPerSecond = 0
	svc, err = CreateEmbeddingService(settings)
	require.NoError(t, err)
	_, wrapped = svc.(*ratelimit.EmbeddingService)
	assert.False(t, wrapped)
}

func TestCreateOllamaEmbedding_UnknownModel(t *testing.T) {
	svc := createOllamaEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "my-custom-model",
	})
	assert.Equal(t, 768, svc.Dimensions())
}

func TestCreateOpenAIEmbedding_Success(t *testing.T) {
	svc, err := createOpenAIEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "test-key",
		Model:    "text-embedding-3-large",
	})
	require.NoError(t, err)
	assert.Equal(t, 3072, svc.Dimensions())
	assert.Equal(t, "text-embedding-3-large", svc.ModelName())
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("unreachable wraps ErrEmbeddingUnavailable", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusServiceUnavailable)
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Enabled:  true,
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Nil(t, svc)
	})

	t.Run("reachable returns service", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusOK)
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Enabled:  true,
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		svc.Close()
	})
}

func TestInit(t *testing.T) {
	t.Run("unconfigured is keyword-only without warnings", func(t *testing.T) {
		result := Init(&domain.EmbeddingSettings{})
		defer result.Close()
		assert.Nil(t, result.EmbeddingService)
		assert.False(t, result.FellBack)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unreachable falls back with a warning", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusBadGateway)
		result := Init(&domain.EmbeddingSettings{
			Enabled:  true,
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		defer result.Close()
		assert.Nil(t, result.EmbeddingService)
		assert.True(t, result.FellBack)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "embedding service unavailable")
	})

	t.Run("reachable keeps the service", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusOK)
		result := Init(&domain.EmbeddingSettings{
			Enabled:  true,
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		defer result.Close()
		assert.NotNil(t, result.EmbeddingService)
		assert.False(t, result.FellBack)
	})
}
