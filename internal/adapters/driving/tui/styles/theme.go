// Package styles holds the palette and lipgloss styles of the TUI,
// including the badges shown for stages, chunks and search hits.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Palette is the set of colours the TUI draws with.
type Palette struct {
	Accent   lipgloss.Color
	Info     lipgloss.Color
	Text     lipgloss.Color
	Dim      lipgloss.Color
	Surface  lipgloss.Color
	Frame    lipgloss.Color
	Positive lipgloss.Color
	Caution  lipgloss.Color
	Danger   lipgloss.Color

	// Semantic marks vector-based hits; keyword hits use Info.
	Semantic lipgloss.Color
}

// DefaultPalette returns the dark palette used when none is configured.
func DefaultPalette() *Palette {
	return &Palette{
		Accent:   lipgloss.Color("#7C3AED"),
		Info:     lipgloss.Color("#06B6D4"),
		Text:     lipgloss.Color("#CDD6F4"),
		Dim:      lipgloss.Color("#6C7086"),
		Surface:  lipgloss.Color("#181825"),
		Frame:    lipgloss.Color("#45475A"),
		Positive: lipgloss.Color("#A6E3A1"),
		Caution:  lipgloss.Color("#F9E2AF"),
		Danger:   lipgloss.Color("#F38BA8"),
		Semantic: lipgloss.Color("#CBA6F7"),
	}
}

// Styles are the rendered styles derived from a palette.
type Styles struct {
	palette *Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// Badges.
	StageOn     lipgloss.Style
	StageOff    lipgloss.Style
	Embedded    lipgloss.Style
	Pending     lipgloss.Style
	Partial     lipgloss.Style
	QA          lipgloss.Style
	Keyword     lipgloss.Style
	SemanticHit lipgloss.Style
}

// NewStyles derives styles from p. A nil palette uses DefaultPalette.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	badge := func(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

	return &Styles{
		palette: p,

		Title:    badge(p.Accent),
		Subtitle: badge(p.Info),
		Normal:   fg(p.Text),
		Muted:    fg(p.Dim),
		Selected: badge(p.Text).Background(p.Accent),
		Error:    fg(p.Danger),
		Success:  fg(p.Positive),
		Warning:  fg(p.Caution),
		Help:     fg(p.Dim),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		StatusBar: fg(p.Dim).Background(p.Surface).Padding(0, 1),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame),

		StageOn:     badge(p.Positive),
		StageOff:    fg(p.Dim),
		Embedded:    fg(p.Positive),
		Pending:     fg(p.Caution),
		Partial:     badge(p.Caution),
		QA:          badge(p.Info),
		Keyword:     fg(p.Info),
		SemanticHit: fg(p.Semantic),
	}
}

// DefaultStyles returns styles for the default palette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the palette the styles were derived from.
func (s *Styles) Palette() *Palette {
	return s.palette
}

// StageBadge renders the active marker of a stage.
func (s *Styles) StageBadge(active bool) string {
	if active {
		return s.StageOn.Render("[x]")
	}
	return s.StageOff.Render("[ ]")
}

// EmbeddingBadge renders whether a chunk carries a vector, naming the
// provider that produced it.
func (s *Styles) EmbeddingBadge(c *domain.Chunk) string {
	if !c.HasEmbedding() {
		return s.Pending.Render("pending")
	}
	label := "embedded"
	if c.EmbeddingProvider != "" {
		label += ":" + c.EmbeddingProvider
	}
	return s.Embedded.Render(label)
}

// MethodBadge renders the retrieval method of a hit.
func (s *Styles) MethodBadge(method string) string {
	switch method {
	case "":
		return ""
	case domain.MethodSemantic, domain.MethodHybrid:
		return s.SemanticHit.Render(method)
	default:
		return s.Keyword.Render(method)
	}
}

// ResultBadges renders the tags of a search hit in display order:
// method, question/answer, partial.
func (s *Styles) ResultBadges(r *domain.SearchResult) []string {
	var tags []string
	if m := s.MethodBadge(r.Method); m != "" {
		tags = append(tags, m)
	}
	if r.IsQuestionAnswer {
		tags = append(tags, s.QA.Render("q&a"))
	}
	if r.IsPartial {
		tags = append(tags, s.Partial.Render("partial"))
	}
	return tags
}
