// Package stages provides the stage visibility view for the TUI.
package stages

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// View lists stages and toggles whether their files are searchable.
type View struct {
	styles       *styles.Styles
	stageService driving.StageService
	ctx          context.Context

	stages   []domain.Stage
	selected int
	width    int
	height   int
	ready    bool
	err      error
	notice   string
	loading  bool
}

// NewView creates a new stages view.
func NewView(s *styles.Styles, stageService driving.StageService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:       s,
		stageService: stageService,
		ctx:          context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the stage list.
func (v *View) Load() tea.Cmd {
	v.err = nil
	v.notice = ""
	v.loading = true
	svc := v.stageService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.StagesLoaded{Err: messages.ServiceUnavailable{Service: "stage"}}
		}
		stages, err := svc.List(ctx)
		return messages.StagesLoaded{Stages: stages, Err: err}
	}
}

// Update handles messages for the stages view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StagesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.stages = msg.Stages
		v.err = nil
		if v.selected >= len(v.stages) {
			v.selected = max(len(v.stages)-1, 0)
		}
		return v, nil

	case messages.StageToggled:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		for i := range v.stages {
			if v.stages[i].ID == msg.Stage.ID {
				v.stages[i] = *msg.Stage
			}
		}
		state := "hidden from search"
		if msg.Stage.IsActive {
			state = "searchable"
		}
		v.notice = fmt.Sprintf("%s is now %s", msg.Stage.Name, state)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.stages)-1 {
			v.selected++
		}
	case " ", "space", "enter":
		if v.selected < len(v.stages) {
			return v, v.toggle(v.stages[v.selected])
		}
	case "r":
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

func (v *View) toggle(stage domain.Stage) tea.Cmd {
	svc := v.stageService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.StageToggled{Err: messages.ServiceUnavailable{Service: "stage"}}
		}
		updated, err := svc.SetActive(ctx, stage.ID, !stage.IsActive)
		return messages.StageToggled{Stage: updated, Err: err}
	}
}

// View renders the stages view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Stages (%d)", len(v.stages))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading stages..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.stages) == 0:
		b.WriteString(v.styles.Muted.Render("No stages. Files without a stage are always searchable."))
	default:
		if v.notice != "" {
			b.WriteString(v.styles.Success.Render(v.notice))
			b.WriteString("\n\n")
		}
		for i := range v.stages {
			b.WriteString(v.renderStage(i, &v.stages[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(keymap.DefaultKeyMap().For(keymap.Stages))))

	return b.String()
}

func (v *View) renderStage(index int, stage *domain.Stage) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	if index == v.selected {
		box := "[ ]"
		if stage.IsActive {
			box = "[x]"
		}
		return v.styles.Selected.Render(fmt.Sprintf("%s%s %s", indicator, box, stage.Name))
	}

	name := v.styles.Normal.Render(stage.Name)
	if !stage.IsActive {
		name = v.styles.Muted.Render(stage.Name)
	}
	return indicator + v.styles.StageBadge(stage.IsActive) + " " + name
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Stages returns the loaded stages.
func (v *View) Stages() []domain.Stage {
	return v.stages
}

// SelectedIndex returns the selected stage index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
