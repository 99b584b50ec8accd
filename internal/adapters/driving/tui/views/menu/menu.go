// Package menu provides the start screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Item is a single menu entry.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

// DefaultItems returns the entries of the start screen.
func DefaultItems() []Item {
	return []Item{
		{Label: "Search", Description: "Ask a question or look up keywords", View: messages.ViewSearch},
		{Label: "Files", Description: "Browse uploaded files and their chunks", View: messages.ViewFiles},
		{Label: "Stages", Description: "Choose which stages are searchable", View: messages.ViewStages},
		{Label: "Help", Description: "Keybindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// Overview summarises the knowledge base shown under the title.
type Overview struct {
	Files        int
	Chunks       int
	Stages       int
	ActiveStages int

	filesKnown  bool
	stagesKnown bool
}

// String renders the known parts of the overview.
func (o Overview) String() string {
	var parts []string
	if o.filesKnown {
		parts = append(parts, fmt.Sprintf("%d files · %d chunks", o.Files, o.Chunks))
	}
	if o.stagesKnown {
		parts = append(parts, fmt.Sprintf("%d of %d stages searchable", o.ActiveStages, o.Stages))
	}
	return strings.Join(parts, " · ")
}

// View is the start screen.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	overview Overview
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the start screen.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  DefaultItems(),
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetFiles updates the file and chunk counts of the overview.
func (v *View) SetFiles(files []domain.FileRecord) {
	v.overview.Files = len(files)
	v.overview.Chunks = 0
	for i := range files {
		v.overview.Chunks += files[i].ChunkCount
	}
	v.overview.filesKnown = true
}

// SetStages updates the stage counts of the overview.
func (v *View) SetStages(stages []domain.Stage) {
	v.overview.Stages = len(stages)
	v.overview.ActiveStages = 0
	for _, st := range stages {
		if st.IsActive {
			v.overview.ActiveStages++
		}
	}
	v.overview.stagesKnown = true
}

// Overview returns the current knowledge base summary.
func (v *View) Overview() Overview {
	return v.overview
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(k, v.keys.Down):
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case keymap.Matches(k, v.keys.Open):
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		case keymap.Matches(k, v.keys.Help):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewHelp}
			}
		case k == "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("sercha-kb"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Knowledge Base Search"))
	b.WriteString("\n")
	if o := v.overview.String(); o != "" {
		b.WriteString(v.styles.Subtitle.Render(o))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	labelWidth := 0
	for _, item := range v.items {
		labelWidth = max(labelWidth, len(item.Label))
	}

	for i, item := range v.items {
		label := fmt.Sprintf("%-*s", labelWidth, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Description != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keys.For(keymap.Menu))))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
