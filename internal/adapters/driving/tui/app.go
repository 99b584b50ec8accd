package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/chunks"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/files"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/stages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	menuView   *menu.View
	searchView *search.View
	filesView  *files.View
	chunksView *chunks.View
	stagesView *stages.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// query is the current search query.
	query string

	// results holds the current search results.
	results []domain.SearchResult

	// selectedIndex is the currently selected result.
	selectedIndex int

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, ErrNilPorts
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s),
		searchView:  search.NewView(s, nil, ports.Search).WithOptions(ports.SearchOptions),
		filesView:   files.NewView(s, ports.Document),
		chunksView:  chunks.NewView(s, ports.Document),
		stagesView:  stages.NewView(s, ports.Stage),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.filesView.WithContext(ctx)
	a.chunksView.WithContext(ctx)
	a.stagesView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("sercha-kb"),
		a.filesView.Load(),
		a.stagesView.Load(),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
			a.syncSearchState()
		case messages.ViewFiles:
			a.filesView, cmd = a.filesView.Update(msg)
		case messages.ViewChunks:
			a.chunksView, cmd = a.chunksView.Update(msg)
		case messages.ViewStages:
			a.stagesView, cmd = a.stagesView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.syncSearchState()
		a.selectedIndex = 0
		return a, cmd

	case messages.ViewChanged:
		prev := a.currentView
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			// Returning from the chunk viewer keeps the previous results.
			if prev != messages.ViewChunks {
				a.searchView.Reset()
				a.syncSearchState()
			}
			return a, a.searchView.Init()
		case messages.ViewFiles:
			return a, tea.Batch(a.filesView.Load(), a.stagesView.Load())
		case messages.ViewStages:
			return a, a.stagesView.Load()
		case messages.ViewMenu, messages.ViewChunks, messages.ViewHelp:
		}
		return a, nil

	case messages.FileSelected:
		from := a.currentView
		if from != messages.ViewSearch {
			from = messages.ViewFiles
		}
		a.currentView = messages.ViewChunks
		return a, a.chunksView.SetFile(msg.File, from)

	case messages.FilesLoaded:
		a.filesView, cmd = a.filesView.Update(msg)
		if msg.Err == nil {
			a.menuView.SetFiles(msg.Files)
		}
		return a, cmd

	case messages.FileDeleted, messages.FileRechunked:
		a.filesView, cmd = a.filesView.Update(msg)
		return a, cmd

	case messages.ChunksLoaded:
		a.chunksView, cmd = a.chunksView.Update(msg)
		return a, cmd

	case messages.StagesLoaded:
		a.stagesView, cmd = a.stagesView.Update(msg)
		if msg.Err == nil {
			a.filesView.SetStageNames(msg.Stages)
			a.menuView.SetStages(msg.Stages)
		}
		return a, cmd

	case messages.StageToggled:
		a.stagesView, cmd = a.stagesView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewFiles:
			a.filesView, cmd = a.filesView.Update(msg)
		case messages.ViewChunks:
			a.chunksView, cmd = a.chunksView.Update(msg)
		case messages.ViewStages:
			a.stagesView, cmd = a.stagesView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewFiles, messages.ViewChunks, messages.ViewStages, messages.ViewHelp:
	}

	return a, cmd
}

func (a *App) syncSearchState() {
	a.query = a.searchView.Query()
	a.results = a.searchView.Results()
	a.selectedIndex = a.searchView.SelectedIndex()
	a.err = a.searchView.Err()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewFiles:
		return a.filesView.View()
	case messages.ViewChunks:
		return a.chunksView.View()
	case messages.ViewStages:
		return a.stagesView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  ?           Help
  q           Quit

Search:
  (type)      Enter a question or keywords
  tab         Switch search mode (default, keyword, semantic, hybrid)
  enter       Submit search

Results:
  j/k, ↑/↓    Navigate results
  enter       Show chunks of the result's file
  n           New search

Files:
  enter       Actions (show chunks, rechunk, delete)
  r           Reload

Stages:
  space       Toggle whether a stage is searchable
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.query
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.results
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.selectedIndex
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.filesView.SetDimensions(width, height)
	a.chunksView.SetDimensions(width, height)
	a.stagesView.SetDimensions(width, height)
}
