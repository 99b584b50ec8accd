// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// linesPerResult is the height of one rendered hit: title, badges, snippet.
const linesPerResult = 3

// ResultList shows ranked hits with a snippet around the first query term.
type ResultList struct {
	styles *styles.Styles
	keys   *keymap.KeyMap

	results []domain.SearchResult
	query   string
	terms   []string

	selected int
	offset   int
	width    int
	height   int
}

// NewResultList creates an empty result list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update moves the selection on navigation keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	k := km.String()
	switch {
	case keymap.Matches(k, r.keys.Up):
		r.MoveUp()
	case keymap.Matches(k, r.keys.Down):
		r.MoveDown()
	case keymap.Matches(k, r.keys.Top):
		r.SetSelected(0)
	case keymap.Matches(k, r.keys.Bottom):
		r.SetSelected(len(r.results) - 1)
	}
	return r, nil
}

// SetResults replaces the hits and the query used for snippets.
func (r *ResultList) SetResults(results []domain.SearchResult, query string) {
	r.results = results
	r.query = query
	r.terms = queryTerms(query)
	r.selected = 0
	r.offset = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult {
	return r.results
}

// Query returns the query the results answer.
func (r *ResultList) Query() string {
	return r.query
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected selects index when it is in range.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
		r.scrollToSelected()
	}
}

// SelectedResult returns the selected hit, or nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	r.SetSelected(r.selected - 1)
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	r.SetSelected(r.selected + 1)
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
	r.scrollToSelected()
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// visibleCount is the number of hits that fit below the header.
func (r *ResultList) visibleCount() int {
	return max(1, (r.height-2)/linesPerResult)
}

func (r *ResultList) scrollToSelected() {
	n := r.visibleCount()
	if r.selected < r.offset {
		r.offset = r.selected
	}
	if r.selected >= r.offset+n {
		r.offset = r.selected - n + 1
	}
	r.offset = max(0, min(r.offset, len(r.results)-n))
}

// View renders the visible window of hits.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	header := fmt.Sprintf("Results (%d)", len(r.results))
	if r.query != "" {
		header = fmt.Sprintf("Results for %q (%d)", r.query, len(r.results))
	}

	end := min(r.offset+r.visibleCount(), len(r.results))
	lines := make([]string, 0, end-r.offset+2)
	lines = append(lines, r.styles.Subtitle.Render(header), "")
	for i := r.offset; i < end; i++ {
		lines = append(lines, r.renderResult(i))
	}
	if end < len(r.results) {
		lines = append(lines, r.styles.Muted.Render(fmt.Sprintf("  … %d more", len(r.results)-end)))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderResult(i int) string {
	result := &r.results[i]

	name := result.SourceFileName
	if name == "" {
		name = "(unnamed file)"
	}
	rank := fmt.Sprintf("%2d. ", i+1)
	score := ScoreLabel(result)
	name = truncate(name, max(10, r.width-len(rank)-len(score)-4))

	var title string
	if i == r.selected {
		title = r.styles.Selected.Render(rank+name) + "  " + r.styles.Subtitle.Render(score)
	} else {
		title = r.styles.Normal.Render(rank+name) + "  " + r.styles.Muted.Render(score)
	}

	badges := "    " + strings.Join(r.styles.ResultBadges(result), r.styles.Muted.Render(" · "))
	snippet := r.styles.Muted.Render("    " + Snippet(result.Text, r.terms, max(20, r.width-6)))

	return title + "\n" + badges + "\n" + snippet
}

// ScoreLabel shows the ranking signal that produced a hit: similarity for
// semantic hits, both values for hybrid ones and the keyword score otherwise.
func ScoreLabel(result *domain.SearchResult) string {
	switch result.Method {
	case domain.MethodSemantic:
		return fmt.Sprintf("sim %.2f", result.Similarity)
	case domain.MethodHybrid:
		return fmt.Sprintf("%.3f · sim %.2f", result.Score, result.Similarity)
	default:
		return fmt.Sprintf("score %.2f", result.Score)
	}
}

// Snippet collapses whitespace in text and cuts it to width runes,
// centring the window on the earliest query term it contains.
func Snippet(text string, terms []string, width int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= width {
		return string(runes)
	}

	start := 0
	if at := firstTerm(runes, terms); at > width/3 {
		start = min(at-width/3, len(runes)-width)
	}
	end := start + width

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + string(runes[start+1:end])
	}
	if end < len(runes) {
		out = string([]rune(out)[:width-1]) + "…"
	}
	return out
}

// firstTerm returns the rune offset of the earliest term in runes, or -1.
func firstTerm(runes []rune, terms []string) int {
	lower := strings.ToLower(string(runes))
	if utf8.RuneCountInString(lower) != len(runes) {
		return -1
	}
	best := -1
	for _, t := range terms {
		if i := strings.Index(lower, t); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return -1
	}
	return utf8.RuneCountInString(lower[:best])
}

func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, `?!.,;:"'()`)
		if utf8.RuneCountInString(f) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
