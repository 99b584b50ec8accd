// Package input holds the query field of the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// maxQueryLength caps what can be typed; longer questions add nothing to
// keyword scoring and are truncated by embedding providers anyway.
const maxQueryLength = 256

// modeCycle is the order Tab steps through. The empty mode means "use the
// configured default".
var modeCycle = []domain.SearchMode{
	"",
	domain.SearchModeKeyword,
	domain.SearchModeSemantic,
	domain.SearchModeHybrid,
}

// QueryInput is a text field for a knowledge-base question together with
// the retrieval mode it will be sent with.
type QueryInput struct {
	field  textinput.Model
	styles *styles.Styles
	mode   domain.SearchMode
	width  int
}

// NewQueryInput creates a focused, empty query field.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "Ask the knowledge base..."
	field.CharLimit = maxQueryLength
	field.Focus()

	q := &QueryInput{field: field, styles: s}
	q.SetWidth(60)
	return q
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text field.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	return q, cmd
}

// View renders the mode label and the field.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Search") + " " + q.styles.Muted.Render("("+q.ModeLabel()+")") + " "
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, q.styles.InputField.Render(q.field.View()))
}

// Value returns the raw text.
func (q *QueryInput) Value() string {
	return q.field.Value()
}

// SetValue replaces the text.
func (q *QueryInput) SetValue(value string) {
	q.field.SetValue(value)
}

// Query returns the text with surrounding whitespace removed.
func (q *QueryInput) Query() string {
	return strings.TrimSpace(q.field.Value())
}

// Mode returns the selected retrieval mode; empty means the default.
func (q *QueryInput) Mode() domain.SearchMode {
	return q.mode
}

// SetMode selects a retrieval mode. Unknown modes select the default.
func (q *QueryInput) SetMode(mode domain.SearchMode) {
	if !mode.IsValid() {
		mode = ""
	}
	q.mode = mode
}

// CycleMode advances to the next retrieval mode and returns it.
func (q *QueryInput) CycleMode() domain.SearchMode {
	for i, m := range modeCycle {
		if m == q.mode {
			q.mode = modeCycle[(i+1)%len(modeCycle)]
			return q.mode
		}
	}
	q.mode = modeCycle[0]
	return q.mode
}

// ModeLabel names the selected mode for display.
func (q *QueryInput) ModeLabel() string {
	if q.mode == "" {
		return "default"
	}
	return q.mode.String()
}

// Focus gives the field keyboard focus.
func (q *QueryInput) Focus() tea.Cmd {
	return q.field.Focus()
}

// Blur removes keyboard focus.
func (q *QueryInput) Blur() {
	q.field.Blur()
}

// Focused reports whether the field has keyboard focus.
func (q *QueryInput) Focused() bool {
	return q.field.Focused()
}

// SetWidth fits the field into width columns, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.field.Width = max(width-len("Search (semantic) ")-4, 20)
}

// Width returns the width last set.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the text and keeps the mode.
func (q *QueryInput) Reset() {
	q.field.Reset()
}
