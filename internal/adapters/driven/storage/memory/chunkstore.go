// Package memory provides an in-memory ChunkStore, used in tests and as
// a reference for the SQLite adapter's behaviour.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *ChunkStore) SaveDocument(_ context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *ChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// SaveChunks stores chunks, replacing existing entries with the same id.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// LoadChunks retrieves chunk records matching the filter, in creation
// order.
func (s *ChunkStore) LoadChunks(_ context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Chunk
	for _, chunk := range s.chunks {
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, chunk.ID) {
			continue
		}
		if filter.DocumentID != "" && chunk.DocumentID != filter.DocumentID {
			continue
		}
		if filter.MissingEmbedding && chunk.HasEmbedding(filter.ModelID) {
			continue
		}
		out = append(out, chunk)
	}

	sortChunks(out)
	return out, nil
}

// SaveEmbedding attaches a vector to a chunk, overwriting any previous
// embedding.
func (s *ChunkStore) SaveEmbedding(_ context.Context, chunkID string, vector []float32, modelID string) error {
	if chunkID == "" || modelID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return domain.ErrNotFound
	}

	chunk.Embedding = slices.Clone(vector)
	chunk.EmbeddingModelID = modelID
	s.chunks[chunkID] = chunk
	return nil
}

// LoadAllEmbeddings returns every stored embedding for the model id,
// in chunk creation order.
func (s *ChunkStore) LoadAllEmbeddings(_ context.Context, modelID string) ([]domain.ChunkVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var embedded []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.HasEmbedding(modelID) {
			embedded = append(embedded, chunk)
		}
	}
	sortChunks(embedded)

	vectors := make([]domain.ChunkVector, len(embedded))
	for i, chunk := range embedded {
		vectors[i] = domain.ChunkVector{ChunkID: chunk.ID, Vector: chunk.Embedding}
	}
	return vectors, nil
}

// LoadMetadata returns the source-document metadata for a chunk.
func (s *ChunkStore) LoadMetadata(_ context.Context, chunkID string) (*domain.DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc, ok := s.documents[chunk.DocumentID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return &domain.DocumentMeta{
		DocumentID:   doc.ID,
		Title:        doc.Title,
		DocType:      doc.DocType,
		Language:     doc.Language,
		Jurisdiction: doc.Jurisdiction,
		Court:        doc.Court,
		IssuedAt:     doc.IssuedAt,
	}, nil
}

// CountChunks returns the total chunk count and the count embedded with
// the given model id.
func (s *ChunkStore) CountChunks(_ context.Context, modelID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	embedded := 0
	for _, chunk := range s.chunks {
		if chunk.HasEmbedding(modelID) {
			embedded++
		}
	}
	return len(s.chunks), embedded, nil
}

// Close releases resources.
func (s *ChunkStore) Close() error {
	return nil
}

// sortChunks orders by creation time, then document, then position,
// matching the SQLite adapter.
func sortChunks(chunks []domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if !chunks[i].CreatedAt.Equal(chunks[j].CreatedAt) {
			return chunks[i].CreatedAt.Before(chunks[j].CreatedAt)
		}
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Position < chunks[j].Position
	})
}
