// Package mcp provides an MCP (Model Context Protocol) server adapter for Qanun.
// It enables AI assistants like Claude to search the local legal corpus.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
