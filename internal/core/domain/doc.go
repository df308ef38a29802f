// Package domain defines the core business entities for Qanun.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source legal document with its metadata
//   - Chunk: A retrieval-sized unit of legal text with an optional embedding
//   - SearchOptions/SearchResult: The query contract of the orchestrator
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
