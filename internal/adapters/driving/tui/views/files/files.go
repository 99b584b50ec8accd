// Package files provides the uploaded files list view for the TUI.
package files

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

// ActionOption represents a file action.
type ActionOption int

const (
	ActionShowChunks ActionOption = iota
	ActionRechunk
	ActionDelete
	ActionCancel
)

// View is the files list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	files        []domain.FileRecord
	stageNames   map[string]string
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	notice       string
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new files view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		files:           []domain.FileRecord{},
		stageNames:      map[string]string{},
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

// Load resets the view and returns a command that fetches the file index.
func (v *View) Load() tea.Cmd {
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	v.notice = ""
	v.showingMenu = false
	v.loading = true
	return v.loadFiles()
}

// SetStageNames provides display names for stage IDs.
func (v *View) SetStageNames(stages []domain.Stage) {
	v.stageNames = make(map[string]string, len(stages))
	for _, st := range stages {
		v.stageNames[st.ID] = st.Name
	}
}

func (v *View) loadFiles() tea.Cmd {
	svc := v.documentService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.FilesLoaded{Err: messages.ServiceUnavailable{Service: "document"}}
		}
		files, err := svc.List(ctx)
		return messages.FilesLoaded{Files: files, Err: err}
	}
}

// Update handles messages for the files view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.FilesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.files = msg.Files
		v.err = nil
		if v.selected >= len(v.files) {
			v.selected = max(len(v.files)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.FileDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		if msg.Deleted {
			v.notice = "Deleted " + msg.FileID
		} else {
			v.notice = "File was already gone"
		}
		return v, v.loadFiles()

	case messages.FileRechunked:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Rechunked %s into %d chunks", msg.File.OriginalName, msg.File.ChunkCount)
		return v, v.loadFiles()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.files)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.files) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowChunks
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "r":
		v.loading = true
		v.notice = ""
		return v, v.loadFiles()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowChunks {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleMenuSelect runs the chosen action on the selected file.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	if v.selected >= len(v.files) {
		return v, nil
	}

	file := v.files[v.selected]

	switch v.menuSelected {
	case ActionShowChunks:
		return v, func() tea.Msg {
			return messages.FileSelected{File: file}
		}
	case ActionRechunk:
		return v, v.rechunkFile(file.ID)
	case ActionDelete:
		return v, v.deleteFile(file.ID)
	case ActionCancel:
	}

	return v, nil
}

func (v *View) rechunkFile(fileID string) tea.Cmd {
	svc := v.documentService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.FileRechunked{Err: messages.ServiceUnavailable{Service: "document"}}
		}
		rec, err := svc.Rechunk(ctx, fileID)
		return messages.FileRechunked{File: rec, Err: err}
	}
}

func (v *View) deleteFile(fileID string) tea.Cmd {
	svc := v.documentService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.FileDeleted{FileID: fileID, Err: messages.ServiceUnavailable{Service: "document"}}
		}
		deleted, err := svc.Delete(ctx, fileID)
		return messages.FileDeleted{FileID: fileID, Deleted: deleted, Err: err}
	}
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, notice, help, and padding
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the files view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Files (%d)", len(v.files))))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading files..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if len(v.files) == 0 {
		b.WriteString(v.styles.Muted.Render("No files uploaded. Use `sercha-kb upload <path>` to add one."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.showingMenu {
		b.WriteString(v.renderActionMenu())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.files) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderFile(i, &v.files[i]))
		b.WriteString("\n")
	}

	if len(v.files) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.files)),
			len(v.files))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderFile renders a single file line.
func (v *View) renderFile(index int, file *domain.FileRecord) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := file.OriginalName
	maxNameLen := v.width/2 - 4
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	detail := fmt.Sprintf("%d chunks  %s", file.ChunkCount, v.stageLabel(file))

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, detail))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxNameLen, name)) +
		v.styles.Muted.Render(detail)
}

func (v *View) stageLabel(file *domain.FileRecord) string {
	if !file.HasStage() {
		return "unstaged"
	}
	if name, ok := v.stageNames[*file.StageID]; ok {
		return name
	}
	return *file.StageID
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	if v.selected < len(v.files) {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", v.files[v.selected].OriginalName)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowChunks, "Show Chunks"},
		{ActionRechunk, "Rechunk"},
		{ActionDelete, "Delete"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(keymap.DefaultKeyMap().For(keymap.FileActions))))

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render(keymap.HelpLine(keymap.DefaultKeyMap().For(keymap.Files)))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Files returns the current list of files.
func (v *View) Files() []domain.FileRecord {
	return v.files
}

// SelectedIndex returns the currently selected file index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedFile returns the currently selected file.
func (v *View) SelectedFile() *domain.FileRecord {
	if v.selected < len(v.files) {
		return &v.files[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
