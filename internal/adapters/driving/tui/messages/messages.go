// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewFiles lists uploaded files.
	ViewFiles
	// ViewChunks shows the chunks of one file.
	ViewChunks
	// ViewStages lists stages and their visibility.
	ViewStages
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewFiles:
		return "files"
	case ViewChunks:
		return "chunks"
	case ViewStages:
		return "stages"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// FilesLoaded carries the file index.
type FilesLoaded struct {
	Files []domain.FileRecord
	Err   error
}

// FileSelected signals a file was chosen for the chunk view.
type FileSelected struct {
	File domain.FileRecord
}

// FileDeleted signals a delete request finished.
type FileDeleted struct {
	FileID  string
	Deleted bool
	Err     error
}

// FileRechunked signals a rechunk request finished.
type FileRechunked struct {
	File *domain.FileRecord
	Err  error
}

// ChunksLoaded carries the chunks of one file.
type ChunksLoaded struct {
	FileID string
	Chunks []domain.Chunk
	Err    error
}

// StagesLoaded carries the stage list.
type StagesLoaded struct {
	Stages []domain.Stage
	Err    error
}

// StageToggled signals a stage's active flag changed.
type StageToggled struct {
	Stage *domain.Stage
	Err   error
}
