// Package tui provides an interactive terminal user interface for sercha-kb.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search ranks chunks against a query.
	Search driving.SearchService

	// Document lists files and their chunks.
	Document driving.DocumentService

	// Stage lists stages and toggles their visibility.
	Stage driving.StageService

	// SearchOptions are applied to every search issued from the TUI.
	SearchOptions domain.SearchOptions
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	document driving.DocumentService,
	stage driving.StageService,
) *Ports {
	return &Ports{
		Search:   search,
		Document: document,
		Stage:    stage,
	}
}

// Validate ensures all required ports are set.
// Only search is mandatory; the files and stages views report an
// error when their service is missing.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
