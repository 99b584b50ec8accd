// Package file provides the TOML-backed ConfigStore. Keys are addressed
// in dot notation ("search.limit") and written as nested tables, so the
// file stays hand-editable:
//
//	[search]
//	limit = 5
//	mode = "hybrid"
package file
