package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func normalise(t *testing.T, name, content string) domain.Document {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Name:     name,
		MIMEType: "text/html",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result.Document
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.NotNil(t, normaliser.policy)
	assert.NotNil(t, normaliser.converter)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_Success(t *testing.T) {
	doc := normalise(t, "normas.html", `<html><head><title>Normas &amp; horarios</title></head>
<body><h1>Normas</h1><p>La <strong>matrícula</strong> se abre en septiembre.</p></body></html>`)

	assert.Equal(t, "Normas & horarios", doc.Title)
	assert.Contains(t, doc.Content, "La matrícula se abre en septiembre.")
	assert.NotContains(t, doc.Content, "<")
	assert.NotContains(t, doc.Content, "**")
	assert.Equal(t, "html", doc.Metadata["format"])
}

func TestNormalise_TitleFallbacks(t *testing.T) {
	t.Run("first heading", func(t *testing.T) {
		doc := normalise(t, "x.html", "<h1>Calendario escolar</h1><p>texto</p>")
		assert.Equal(t, "Calendario escolar", doc.Title)
	})

	t.Run("file name", func(t *testing.T) {
		doc := normalise(t, "guia_docente.html", "<p>texto</p>")
		assert.Equal(t, "guia docente", doc.Title)
	})
}

func TestNormalise_DropsActiveContent(t *testing.T) {
	doc := normalise(t, "x.html", `<p>Visible</p>
<script>alert("nope")</script>
<style>.x { color: red }</style>
<noscript>sin javascript</noscript>
<svg><text>vector</text></svg>`)

	assert.Contains(t, doc.Content, "Visible")
	for _, hidden := range []string{"alert", "color", "sin javascript", "vector"} {
		assert.NotContains(t, doc.Content, hidden)
	}
}

func TestNormalise_KeepsParagraphBreaks(t *testing.T) {
	doc := normalise(t, "x.html", "<p>Primer párrafo.</p><p>Segundo párrafo.</p><ul><li>Uno</li><li>Dos</li></ul>")

	paragraphs := strings.Split(doc.Content, "\n\n")
	assert.GreaterOrEqual(t, len(paragraphs), 3)
	assert.Contains(t, doc.Content, "Primer párrafo.")
	assert.Contains(t, doc.Content, "Uno")
	assert.NotContains(t, doc.Content, "- Uno")
}

func TestNormalise_LinksAndEntities(t *testing.T) {
	doc := normalise(t, "x.html", `<p>Consulta la <a href="https://example.com/faq">página de ayuda</a> &ndash; gracias</p>`)

	assert.Contains(t, doc.Content, "página de ayuda")
	assert.NotContains(t, doc.Content, "https://example.com")
	assert.Contains(t, doc.Content, "–")
}

func TestNormalise_Table(t *testing.T) {
	doc := normalise(t, "x.html", `<table><tr><th>Día</th><th>Hora</th></tr><tr><td>Lunes</td><td>9:00</td></tr></table>`)

	assert.Contains(t, doc.Content, "Lunes")
	assert.Contains(t, doc.Content, "9:00")
	assert.NotContains(t, doc.Content, "---")
}

func TestNormalise_MetadataPreserved(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "a.html",
		MIMEType: "text/html",
		Content:  []byte("<p>x</p>"),
		Metadata: map[string]any{"author": "dirección"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "dirección", result.Document.Metadata["author"])
}

func TestExtractHTMLTitle(t *testing.T) {
	assert.Equal(t, "A & B", extractHTMLTitle("<TITLE> A &amp; B </TITLE>"))
	assert.Equal(t, "", extractHTMLTitle("<p>no title</p>"))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	normaliser := New()
	ctx := context.Background()
	raw := &domain.RawDocument{
		Name:     "large.html",
		MIMEType: "text/html",
		Content:  []byte("<html><body>" + strings.Repeat("<p>Contenido de <b>prueba</b>.</p>", 500) + "</body></html>"),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = normaliser.Normalise(ctx, raw)
	}
}
