package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{FileID: "f1", ChunkID: "f1-a", IsQuestionAnswer: true},
		{FileID: "f1", ChunkID: "f1-b"},
		{FileID: "f2", ChunkID: "f2-a", IsPartial: true},
	}
}

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar.styles)
	require.NotNil(t, bar.keymap)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())
	assert.Zero(t, bar.Summary())
}

func TestSummarise(t *testing.T) {
	s := Summarise(sampleResults())

	assert.Equal(t, Summary{Chunks: 3, Files: 2, Partial: 1, QA: 1}, s)
	assert.Equal(t, "3 chunks from 2 files · 1 q&a · 1 partial", s.String())
}

func TestSummary_String_Singular(t *testing.T) {
	s := Summarise([]domain.SearchResult{{FileID: "f1"}})

	assert.Equal(t, "1 chunk from 1 file", s.String())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *Bar)
		want    []string
		notWant []string
	}{
		{
			name:  "ready",
			setup: func(*Bar) {},
			want:  []string{"Ready", "[enter] search", "[tab] mode"},
		},
		{
			name:  "ready with message",
			setup: func(b *Bar) { b.SetMessage("Mode: hybrid") },
			want:  []string{"Mode: hybrid"},
		},
		{
			name:  "searching",
			setup: func(b *Bar) { b.SetState(StateSearching) },
			want:  []string{"Searching..."},
		},
		{
			name:  "error without message",
			setup: func(b *Bar) { b.SetState(StateError) },
			want:  []string{"Error"},
		},
		{
			name: "error with message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("search service not available")
			},
			want: []string{"Error: search service not available"},
		},
		{
			name: "results",
			setup: func(b *Bar) {
				b.SetState(StateResults)
				b.SetResults(sampleResults())
			},
			want:    []string{"3 chunks from 2 files", "[n] new search", "[enter] chunks"},
			notWant: []string{"[tab] mode"},
		},
		{
			name: "no results",
			setup: func(b *Bar) {
				b.SetState(StateResults)
				b.SetResults(nil)
				b.SetMessage("No matching chunks")
			},
			want:    []string{"No matching chunks", "[tab] mode"},
			notWant: []string{"0 chunks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			tt.setup(bar)

			view := bar.View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateResults)
	bar.SetMessage("x")
	bar.SetResults(sampleResults())

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.Summary())
}
