// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise converts a DOCX document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: word/document.xml missing", domain.ErrInvalidInput)
	}

	parsed, err := parseBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: word/document.xml: %v", domain.ErrInvalidInput, err)
	}

	title := coreTitle(reader)
	if title == "" {
		title = parsed.heading
	}
	if title == "" {
		title = titleFromName(raw.Name)
	}

	metadata := copyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "docx"
	if parsed.tables > 0 {
		metadata["tables"] = parsed.tables
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			Title:    title,
			Content:  strings.Join(parsed.blocks, "\n\n"),
			Metadata: metadata,
		},
	}, nil
}

// readPart returns the bytes of the named archive member, or nil when the
// archive has no such member.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, name, err)
		}
		return content, nil
	}
	return nil, nil
}

// body is the text of word/document.xml in document order.
type body struct {
	// blocks are paragraphs and tables. The chunker splits on the blank
	// lines they are joined with.
	blocks []string

	// heading is the first paragraph styled Title or Heading1.
	heading string

	tables int
}

// parseBody walks word/document.xml as a token stream so paragraphs and
// tables keep their relative order. Each table becomes one block with a
// "cell | cell" line per row.
//
//nolint:gocognit // one switch over the WordprocessingML elements we read
func parseBody(content []byte) (*body, error) {
	var (
		out        body
		para       strings.Builder
		style      string
		cell       []string
		row        []string
		rows       []string
		tableDepth int
	)

	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para.Reset()
				style = ""
			case "pStyle":
				style = attr(t, "val")
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, err
				}
				para.WriteString(text)
			case "tab", "br", "cr":
				para.WriteByte(' ')
			case "tbl":
				if tableDepth == 0 {
					rows = nil
				}
				tableDepth++
			case "tr":
				row = nil
			case "tc":
				cell = nil
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				text := strings.Join(strings.Fields(para.String()), " ")
				switch {
				case text == "":
				case tableDepth > 0:
					cell = append(cell, text)
				default:
					out.blocks = append(out.blocks, text)
					if out.heading == "" && isTitleStyle(style) {
						out.heading = text
					}
				}
			case "tc":
				row = append(row, strings.Join(cell, " "))
			case "tr":
				if strings.TrimSpace(strings.Join(row, "")) != "" {
					rows = append(rows, strings.Join(row, " | "))
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(rows) > 0 {
					out.blocks = append(out.blocks, strings.Join(rows, "\n"))
					out.tables++
				}
			}
		}
	}
	return &out, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func isTitleStyle(style string) bool {
	switch strings.ToLower(style) {
	case "title", "heading1":
		return true
	default:
		return false
	}
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// coreTitle returns the document title from docProps/core.xml, if set.
func coreTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil || content == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// titleFromName turns "reglamento_interno-2024.docx" into
// "reglamento interno 2024".
func titleFromName(name string) string {
	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("_", " ", "-", " ").Replace(filename)
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
