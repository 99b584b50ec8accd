package domain

import "strings"

// RawDocument is an uploaded payload before text extraction.
type RawDocument struct {
	// Name is the original file name.
	Name string

	// MIMEType selects the normaliser.
	MIMEType string

	// Content is the raw payload.
	Content []byte

	// Metadata carries format-specific hints (e.g. "title").
	Metadata map[string]any
}

// Document is the extracted text of an upload, ready for chunking.
type Document struct {
	// Title is a human-readable title taken from the content or name.
	Title string

	// Content is the full extracted text.
	Content string

	// Metadata carries what the normaliser learned about the document.
	Metadata map[string]any
}

// extensionMIMETypes maps accepted extensions to the MIME type used for
// normaliser dispatch.
var extensionMIMETypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".html": "text/html",
	".htm":  "text/html",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MIMETypeForExtension returns the MIME type for an accepted extension,
// or "application/octet-stream".
func MIMETypeForExtension(ext string) string {
	if mime, ok := extensionMIMETypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
