package tui

import (
	"errors"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
)

// ErrNilPorts is returned by NewApp when no ports are given.
var ErrNilPorts = errors.New("tui: no ports configured")

// ErrMissingSearchService is returned by Ports.Validate. Every other view
// degrades on its own, but the TUI has nothing to show without search.
var ErrMissingSearchService error = messages.ServiceUnavailable{Service: "search"}
