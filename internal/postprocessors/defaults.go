package postprocessors

import (
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/chunker"
)

// DefaultExtractor is the extractor used when none is configured.
const DefaultExtractor = "chunker"

// RegisterDefaults registers all built-in extractors with the registry.
// Call this during application initialisation to enable standard extractors.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultExtractor, buildChunker)
}

// buildChunker creates a paragraph chunker from generic config.
// Supported config keys:
//   - min_paragraph_length (int): Shortest paragraph kept (default: 50)
//   - max_chunk_length (int): Longest chunk before sentence splitting (default: 1500)
//   - stopwords ([]string): Extra words dropped from keywords
func buildChunker(cfg map[string]any) (driven.ChunkExtractor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if n := getIntFromConfig(cfg, "min_paragraph_length"); n > 0 {
			opts = append(opts, chunker.WithMinParagraphLength(n))
		}
		if n := getIntFromConfig(cfg, "max_chunk_length"); n > 0 {
			opts = append(opts, chunker.WithMaxChunkLength(n))
		}
		if words := getStringsFromConfig(cfg, "stopwords"); len(words) > 0 {
			opts = append(opts, chunker.WithStopwords(words...))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getStringsFromConfig extracts a string list, accepting []string or []any.
func getStringsFromConfig(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
