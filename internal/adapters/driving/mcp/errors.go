// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-kb.
// It lets AI assistants pull knowledge base context and search uploaded files.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
