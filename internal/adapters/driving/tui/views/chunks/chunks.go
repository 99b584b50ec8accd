// Package chunks provides the chunk viewer for a single file.
package chunks

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

const maxHeaderKeywords = 5

// View is the chunk viewer.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	file         *domain.FileRecord
	chunks       []domain.Chunk
	lines        []string
	returnTo     messages.ViewType
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new chunk viewer.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		returnTo:        messages.ViewFiles,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetFile sets the file to show and loads its chunks.
// Esc returns to the given view.
func (v *View) SetFile(file domain.FileRecord, returnTo messages.ViewType) tea.Cmd {
	v.file = &file
	v.returnTo = returnTo
	v.chunks = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadChunks()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadChunks() tea.Cmd {
	svc := v.documentService
	ctx := v.ctx
	fileID := v.file.ID
	return func() tea.Msg {
		if svc == nil {
			return messages.ChunksLoaded{FileID: fileID, Err: messages.ServiceUnavailable{Service: "document"}}
		}
		chunks, err := svc.Chunks(ctx, fileID)
		return messages.ChunksLoaded{FileID: fileID, Chunks: chunks, Err: err}
	}
}

// Update handles messages for the chunk viewer.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChunksLoaded:
		if v.file == nil || msg.FileID != v.file.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.chunks = msg.Chunks
		v.err = nil
		v.layout()
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
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		target := v.returnTo
		return v, func() tea.Msg {
			return messages.ViewChanged{View: target}
		}
	}

	return v, nil
}

// layout renders chunk headers and wraps chunk text to the view width.
func (v *View) layout() {
	v.lines = nil
	if len(v.chunks) == 0 {
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	for i, c := range v.chunks {
		if i > 0 {
			v.lines = append(v.lines, "")
		}
		v.lines = append(v.lines, v.chunkHeader(&c))
		for _, line := range strings.Split(c.Text, "\n") {
			v.lines = append(v.lines, wrap(line, contentWidth)...)
		}
	}
}

func (v *View) chunkHeader(c *domain.Chunk) string {
	parts := []string{v.styles.Subtitle.Render(fmt.Sprintf("#%d", c.Position))}
	if c.IsQuestionAnswer {
		parts = append(parts, v.styles.QA.Render("q&a"))
	}
	parts = append(parts, v.styles.EmbeddingBadge(c))
	if len(c.Keywords) > 0 {
		kw := c.Keywords
		if len(kw) > maxHeaderKeywords {
			kw = kw[:maxHeaderKeywords]
		}
		parts = append(parts, v.styles.Muted.Render("keywords: "+strings.Join(kw, ", ")))
	}
	return strings.Join(parts, "  ")
}

func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the chunk viewer.
func (v *View) View() string {
	var b strings.Builder

	title := "Chunks"
	if v.file != nil {
		title = fmt.Sprintf("%s (%d chunks)", v.file.OriginalName, len(v.chunks))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
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

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No chunks)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		b.WriteString("\n")
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.lines)),
			len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render(keymap.HelpLine(keymap.DefaultKeyMap().For(keymap.Chunks)))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

// File returns the file being shown.
func (v *View) File() *domain.FileRecord {
	return v.file
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
