package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query        string  `json:"query" jsonschema:"the search query, typically in Arabic"`
	TopK         int     `json:"top_k,omitempty" jsonschema:"maximum number of results to return"`
	Threshold    float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity (0-1) for a result"`
	DocType      string  `json:"doc_type,omitempty" jsonschema:"restrict to a document type (law, regulation, judgment, contract)"`
	Language     string  `json:"language,omitempty" jsonschema:"restrict to a language code"`
	Jurisdiction string  `json:"jurisdiction,omitempty" jsonschema:"restrict to a jurisdiction"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
	Degraded bool                 `json:"degraded,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	Title         string  `json:"title"`
	Similarity    float64 `json:"similarity"`
	Content       string  `json:"content"`
	ArticleNumber string  `json:"article_number,omitempty"`
	SectionTitle  string  `json:"section_title,omitempty"`
	DocType       string  `json:"doc_type,omitempty"`
	Jurisdiction  string  `json:"jurisdiction,omitempty"`
}

// EmbedInput is the input schema for the generate_embeddings tool.
type EmbedInput struct {
	ChunkIDs  []string `json:"chunk_ids,omitempty" jsonschema:"chunks to embed; empty means all chunks missing an embedding"`
	Overwrite bool     `json:"overwrite,omitempty" jsonschema:"regenerate embeddings that already exist"`
}

// EmbedOutput is the output schema for the generate_embeddings tool.
type EmbedOutput struct {
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// BuildIndexInput is the input schema for the build_index tool.
type BuildIndexInput struct{}

// BuildIndexOutput is the output schema for the build_index tool.
type BuildIndexOutput struct {
	TotalVectors  int    `json:"total_vectors"`
	BuildDuration string `json:"build_duration"`
	ModelID       string `json:"model_id"`
	Degraded      bool   `json:"degraded,omitempty"`
}

// StatisticsInput is the input schema for the get_statistics tool.
type StatisticsInput struct{}

// StatisticsOutput is the output schema for the get_statistics tool.
type StatisticsOutput struct {
	TotalChunks          int    `json:"total_chunks"`
	ChunksWithEmbeddings int    `json:"chunks_with_embeddings"`
	IndexStatus          string `json:"index_status"`
	IndexVectors         int    `json:"index_vectors"`
	ModelID              string `json:"model_id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search across the indexed legal corpus",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_embeddings",
		Description: "Generate embeddings for stored chunks",
	}, s.handleGenerateEmbeddings)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_index",
		Description: "Rebuild the vector index from persisted embeddings",
	}, s.handleBuildIndex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_statistics",
		Description: "Report chunk counts, embedding coverage and index status",
	}, s.handleGetStatistics)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		TopK:      input.TopK,
		Threshold: input.Threshold,
		Filters: domain.SearchFilters{
			DocType:      input.DocType,
			Language:     input.Language,
			Jurisdiction: input.Jurisdiction,
		},
	}

	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:  make([]SearchResultOutput, len(resp.Results)),
		Count:    len(resp.Results),
		Degraded: resp.Degraded,
	}

	for i := range resp.Results {
		r := &resp.Results[i]
		output.Results[i] = SearchResultOutput{
			ChunkID:       r.ChunkID,
			DocumentID:    r.Document.DocumentID,
			Title:         r.Document.Title,
			Similarity:    r.Similarity,
			Content:       r.Content,
			ArticleNumber: r.ArticleNumber,
			SectionTitle:  r.SectionTitle,
			DocType:       r.Document.DocType,
			Jurisdiction:  r.Document.Jurisdiction,
		}
	}

	return nil, output, nil
}

// handleGenerateEmbeddings handles the generate_embeddings tool invocation.
func (s *Server) handleGenerateEmbeddings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EmbedInput,
) (*mcp.CallToolResult, EmbedOutput, error) {
	if s.ports.Embedding == nil {
		return nil, EmbedOutput{}, errors.New("embedding service not configured")
	}

	report, err := s.ports.Embedding.GenerateEmbeddings(ctx, input.ChunkIDs, input.Overwrite)
	if err != nil {
		return nil, EmbedOutput{}, err
	}

	return nil, EmbedOutput{
		Processed: report.Processed,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
	}, nil
}

// handleBuildIndex handles the build_index tool invocation.
func (s *Server) handleBuildIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ BuildIndexInput,
) (*mcp.CallToolResult, BuildIndexOutput, error) {
	if s.ports.Index == nil {
		return nil, BuildIndexOutput{}, errors.New("index service not configured")
	}

	report, err := s.ports.Index.BuildIndex(ctx)
	if err != nil {
		return nil, BuildIndexOutput{}, err
	}

	return nil, BuildIndexOutput{
		TotalVectors:  report.TotalVectors,
		BuildDuration: report.BuildDuration.String(),
		ModelID:       report.ModelID,
		Degraded:      report.Degraded,
	}, nil
}

// handleGetStatistics handles the get_statistics tool invocation.
func (s *Server) handleGetStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatisticsInput,
) (*mcp.CallToolResult, StatisticsOutput, error) {
	if s.ports.Index == nil {
		return nil, StatisticsOutput{}, errors.New("index service not configured")
	}

	stats, err := s.ports.Index.GetStatistics(ctx)
	if err != nil {
		return nil, StatisticsOutput{}, err
	}

	return nil, StatisticsOutput{
		TotalChunks:          stats.TotalChunks,
		ChunksWithEmbeddings: stats.ChunksWithEmbeddings,
		IndexStatus:          string(stats.IndexStatus),
		IndexVectors:         stats.IndexVectors,
		ModelID:              stats.ModelID,
	}, nil
}
