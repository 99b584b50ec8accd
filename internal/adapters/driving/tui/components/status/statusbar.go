// Package status renders the bar at the foot of the search view: what the
// last search found on the left, the keys that apply on the right.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// State is what the search view is doing.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateResults   State = "results"
)

// Summary counts the hits of one search.
type Summary struct {
	Chunks  int
	Files   int
	Partial int
	QA      int
}

// Summarise counts results by file and by kind.
func Summarise(results []domain.SearchResult) Summary {
	files := make(map[string]struct{}, len(results))
	s := Summary{Chunks: len(results)}
	for i := range results {
		files[results[i].FileID] = struct{}{}
		if results[i].IsPartial {
			s.Partial++
		}
		if results[i].IsQuestionAnswer {
			s.QA++
		}
	}
	s.Files = len(files)
	return s
}

// String renders the summary, e.g. "4 chunks from 2 files · 1 partial".
func (s Summary) String() string {
	out := fmt.Sprintf("%d %s from %d %s", s.Chunks, plural(s.Chunks, "chunk"), s.Files, plural(s.Files, "file"))
	if s.QA > 0 {
		out += fmt.Sprintf(" · %d q&a", s.QA)
	}
	if s.Partial > 0 {
		out += fmt.Sprintf(" · %d partial", s.Partial)
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Bar is the status bar of the search view.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	summary Summary
	width   int
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left, right := b.renderLeft(), b.renderRight()
	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateResults:
		if b.summary.Chunks > 0 {
			line := b.styles.Normal.Render(b.summary.String())
			if b.message != "" {
				line += b.styles.Muted.Render(" · " + b.message)
			}
			return line
		}
	}
	if b.message != "" {
		return b.styles.Muted.Render(b.message)
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) renderRight() string {
	ctx := keymap.Query
	if b.state == StateResults && b.summary.Chunks > 0 {
		ctx = keymap.Results
	}
	return b.styles.Muted.Render(keymap.HelpLine(b.keymap.For(ctx)))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the free-text message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the free-text message.
func (b *Bar) Message() string {
	return b.message
}

// SetResults records the results of the last search.
func (b *Bar) SetResults(results []domain.SearchResult) {
	b.summary = Summarise(results)
}

// Summary returns the counts of the last search.
func (b *Bar) Summary() Summary {
	return b.summary
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the bar width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the bar to the ready state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.summary = Summary{}
}
