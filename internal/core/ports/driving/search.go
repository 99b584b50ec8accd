package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search ranks visible chunks against the query.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// GetContext returns the texts of the best chunks for a chat prompt.
	// It never fails: any error is logged and yields an empty list.
	GetContext(ctx context.Context, query string, maxResults int) []string
}
