package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// sampleText is embedded once to check the vector size a model returns.
const sampleText = "sercha-kb embedding check"

// ConfigValidator checks an embedding configuration before it is saved:
// the provider must answer and return vectors of the size the model is
// known for, since stored chunk vectors are compared against query vectors.
type ConfigValidator struct {
	create  func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	timeout time.Duration
}

// NewConfigValidator creates a validator that talks to the real providers.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{create: CreateEmbeddingService, timeout: pingTimeout}
}

// ValidateEmbedding pings the provider and embeds a short sample. Nil or
// unconfigured settings are valid.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := v.create(config)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	vec, err := svc.Embed(ctx, sampleText)
	if err != nil {
		return fmt.Errorf("%w: embedding sample text: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return domain.NewValidationError("embedding.model",
			"%s returned %d dimensions, expected %d", svc.ModelName(), len(vec), want)
	}
	return nil
}
