// Package normalisers provides implementations of the Normaliser interface
// for the supported upload formats. Each normaliser extracts plain text
// from one or more MIME types.
//
// The Registry picks the highest priority normaliser for a document's
// MIME type. RegisterDefaults installs the built-in set at startup.
package normalisers
