package list

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{FileID: "f1", ChunkID: "c1", SourceFileName: "refunds.md", Text: "Refunds are issued within 14 days.", Score: 3, Method: domain.MethodKeyword},
		{FileID: "f2", ChunkID: "c2", SourceFileName: "faq.md", Text: "Q: Can I return an item?\nA: Yes.", Similarity: 0.81, Method: domain.MethodSemantic, IsQuestionAnswer: true},
		{FileID: "f3", ChunkID: "c3", SourceFileName: "policy.pdf", Text: "Returns require a receipt.", Score: 0.032, Similarity: 0.64, Method: domain.MethodHybrid, IsPartial: true},
	}
}

func newList(t *testing.T, n int) *ResultList {
	t.Helper()
	results := make([]domain.SearchResult, n)
	for i := range results {
		results[i] = domain.SearchResult{
			FileID:         fmt.Sprintf("f%d", i),
			SourceFileName: fmt.Sprintf("file-%02d.md", i),
			Text:           "text",
			Method:         domain.MethodKeyword,
		}
	}
	r := NewResultList(nil)
	r.SetResults(results, "text")
	return r
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestNewResultList(t *testing.T) {
	r := NewResultList(nil)

	require.NotNil(t, r)
	assert.NotNil(t, r.styles)
	assert.Nil(t, r.Init())
	assert.Zero(t, r.Count())
	assert.Nil(t, r.SelectedResult())
	assert.Equal(t, "No results", r.View())
}

func TestResultList_SetResults(t *testing.T) {
	r := NewResultList(nil)
	r.SetResults(sampleResults(), "refund policy")
	r.SetSelected(2)

	r.SetResults(sampleResults()[:2], "return")

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, "return", r.Query())
	assert.Equal(t, 0, r.Selected(), "selection resets")
	assert.Equal(t, "c1", r.SelectedResult().ChunkID)
}

func TestResultList_Navigation(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want int
	}{
		{"down arrow", []string{"down"}, 1},
		{"j twice", []string{"j", "j"}, 2},
		{"stops at bottom", []string{"j", "j", "j", "j", "j"}, 4},
		{"up at top", []string{"up", "k"}, 0},
		{"down then up", []string{"j", "j", "k"}, 1},
		{"bottom", []string{"G"}, 4},
		{"bottom then top", []string{"G", "g"}, 0},
		{"other keys ignored", []string{"x", "n"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newList(t, 5)
			for _, k := range tt.keys {
				_, cmd := r.Update(key(k))
				assert.Nil(t, cmd)
			}
			assert.Equal(t, tt.want, r.Selected())
		})
	}
}

func TestResultList_SetSelected_OutOfRange(t *testing.T) {
	r := newList(t, 3)
	r.SetSelected(1)

	r.SetSelected(3)
	r.SetSelected(-1)

	assert.Equal(t, 1, r.Selected())
}

func TestResultList_View(t *testing.T) {
	r := NewResultList(nil)
	r.SetDimensions(100, 20)
	r.SetResults(sampleResults(), "refund")

	out := r.View()

	assert.Contains(t, out, `Results for "refund" (3)`)
	assert.Contains(t, out, " 1. refunds.md")
	assert.Contains(t, out, " 2. faq.md")
	assert.Contains(t, out, "score 3.00")
	assert.Contains(t, out, "sim 0.81")
	assert.Contains(t, out, "0.032 · sim 0.64")
	assert.Contains(t, out, "q&a")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "Yes.", "snippet collapses newlines")
	assert.NotContains(t, out, "more")
}

func TestResultList_View_UnnamedFile(t *testing.T) {
	r := NewResultList(nil)
	r.SetResults([]domain.SearchResult{{Text: "orphan chunk"}}, "")

	out := r.View()
	assert.Contains(t, out, "Results (1)")
	assert.Contains(t, out, "(unnamed file)")
}

func TestResultList_View_ScrollsWithSelection(t *testing.T) {
	r := newList(t, 10)
	// Header plus two hits.
	r.SetDimensions(80, 2+2*linesPerResult)

	out := r.View()
	assert.Contains(t, out, "file-00.md")
	assert.Contains(t, out, "file-01.md")
	assert.NotContains(t, out, "file-02.md")
	assert.Contains(t, out, "8 more")

	r.SetSelected(5)
	out = r.View()
	assert.Contains(t, out, "file-04.md")
	assert.Contains(t, out, "file-05.md")
	assert.NotContains(t, out, "file-03.md")

	// Moving back above the window scrolls up.
	r.SetSelected(1)
	out = r.View()
	assert.Contains(t, out, "file-01.md")
	assert.NotContains(t, out, "file-03.md")

	r.SetSelected(9)
	assert.NotContains(t, r.View(), "more")
}

func TestResultList_View_LongFileName(t *testing.T) {
	r := NewResultList(nil)
	r.SetDimensions(40, 20)
	r.SetResults([]domain.SearchResult{{SourceFileName: strings.Repeat("n", 80) + ".md"}}, "")

	out := r.View()
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, ".md")
}

func TestScoreLabel(t *testing.T) {
	tests := []struct {
		result domain.SearchResult
		want   string
	}{
		{domain.SearchResult{Method: domain.MethodKeyword, Score: 2.5}, "score 2.50"},
		{domain.SearchResult{Score: 1}, "score 1.00"},
		{domain.SearchResult{Method: domain.MethodSemantic, Similarity: 0.734}, "sim 0.73"},
		{domain.SearchResult{Method: domain.MethodHybrid, Score: 0.0326, Similarity: 0.5}, "0.033 · sim 0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreLabel(&tt.result))
		})
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 20) + "the refund window is fourteen days " + strings.Repeat("dolor sit ", 20)

	tests := []struct {
		name      string
		text      string
		terms     []string
		width     int
		want      string
		contains  string
		hasPrefix bool
		hasSuffix bool
	}{
		{name: "short text unchanged", text: "Refunds\n\ttake  14 days", width: 40, want: "Refunds take 14 days"},
		{name: "no term keeps head", text: long, terms: []string{"absent"}, width: 30, contains: "lorem ipsum", hasSuffix: true},
		{name: "centres on term", text: long, terms: []string{"refund"}, width: 40, contains: "refund window", hasPrefix: true, hasSuffix: true},
		{name: "earliest term wins", text: long, terms: []string{"dolor", "lorem"}, width: 30, contains: "lorem", hasSuffix: true},
		{name: "term near end", text: strings.Repeat("x ", 40) + "refund", terms: []string{"refund"}, width: 20, contains: "refund", hasPrefix: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Snippet(tt.text, tt.terms, tt.width)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, tt.width, len([]rune(got)))
			assert.Contains(t, got, tt.contains)
			assert.Equal(t, tt.hasPrefix, strings.HasPrefix(got, "…"))
			assert.Equal(t, tt.hasSuffix, strings.HasSuffix(got, "…"))
		})
	}
}

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"how", "long", "do", "refunds", "take"}, queryTerms("How long do refunds take?"))
	assert.Empty(t, queryTerms("a ? !"))
}
