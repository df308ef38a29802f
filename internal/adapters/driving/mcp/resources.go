package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// uriScheme is the custom URI scheme for Qanun resources.
const uriScheme = "qanun://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Full text of a stored legal document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)

	// Template for document chunks.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/chunks",
		Name:        "document-chunks",
		Description: "Chunk records of a stored legal document",
		MIMEType:    "application/json",
	}, s.handleDocumentChunksResource)
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Store == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Store.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

// handleDocumentChunksResource returns chunk records for a document.
func (s *Server) handleDocumentChunksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Store == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// URI shape: qanun://documents/{documentId}/chunks
	docID := strings.TrimSuffix(extractDocumentID(req.Params.URI), "/chunks")
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunks, err := s.ports.Store.LoadChunks(ctx, domain.ChunkFilter{DocumentID: docID})
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	type chunkInfo struct {
		ID            string `json:"id"`
		Position      int    `json:"position"`
		ArticleNumber string `json:"article_number,omitempty"`
		SectionTitle  string `json:"section_title,omitempty"`
		Embedded      bool   `json:"embedded"`
		Content       string `json:"content"`
	}

	infos := make([]chunkInfo, len(chunks))
	for i := range chunks {
		infos[i] = chunkInfo{
			ID:            chunks[i].ID,
			Position:      chunks[i].Position,
			ArticleNumber: chunks[i].ArticleNumber,
			SectionTitle:  chunks[i].SectionTitle,
			Embedded:      len(chunks[i].Embedding) > 0,
			Content:       chunks[i].Content,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling chunks: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like qanun://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
