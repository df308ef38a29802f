package mcp

import (
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides semantic search capabilities.
	Search driving.SearchService

	// Embedding drives batch embedding generation.
	Embedding driving.EmbeddingService

	// Index owns vector index lifecycle.
	Index driving.IndexService

	// Store serves document content for resources.
	Store driven.ChunkStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Embedding, Index and Store are optional; tools and resources that
	// need them report unavailability per call.
	return nil
}
