// Package html provides a Normaliser implementation for HTML documents.
// Uploads are sanitised with bluemonday, converted to Markdown with
// html-to-markdown and reduced to plain paragraphs for chunking.
package html
