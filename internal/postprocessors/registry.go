// Package postprocessors builds chunk extractors from configuration.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// BuilderFunc creates a ChunkExtractor from generic config.
// Config is a map of extractor-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.ChunkExtractor, error)

// Registry maps extractor names to their builders.
// It allows dynamic construction of extractors from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds an extractor builder to the registry.
// Name should be unique and match the extractor's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates an extractor by name with the given config.
// Returns error if the extractor name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.ChunkExtractor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown chunk extractor: %s", name)
	}
	return builder(cfg)
}

// Has returns true if an extractor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered extractor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
