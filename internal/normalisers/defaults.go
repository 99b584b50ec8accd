package normalisers

import (
	"github.com/custodia-labs/sercha-kb/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/html"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/plaintext"
)

// RegisterDefaults registers the built-in normalisers for every
// supported upload type.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
}

// NewDefaultRegistry returns a registry with the built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
