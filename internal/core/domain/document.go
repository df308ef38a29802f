package domain

import "time"

// Document represents a source legal document.
// It is the canonical representation after text extraction, which happens
// upstream of this system. Only the raw text and metadata arrive here.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the full text content before chunking.
	Content string

	// DocType classifies the document (law, regulation, judgment, contract).
	DocType string

	// Language is the ISO 639-1 language code of the text (e.g. "ar").
	Language string

	// Jurisdiction identifies the issuing jurisdiction.
	Jurisdiction string

	// Court is the issuing court, when the document is a judgment.
	Court string

	// IssuedAt is when the document was issued or decided.
	IssuedAt time.Time

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// DocumentMeta is the enrichment view of a document attached to search
// results. It deliberately excludes Content.
type DocumentMeta struct {
	// DocumentID is the parent document.
	DocumentID string

	// Title is the document title.
	Title string

	// DocType classifies the document.
	DocType string

	// Language is the document language code.
	Language string

	// Jurisdiction identifies the issuing jurisdiction.
	Jurisdiction string

	// Court is the issuing court, if any.
	Court string

	// IssuedAt is when the document was issued.
	IssuedAt time.Time
}

// Chunk represents a retrieval-sized unit of legal text.
// Documents are split into chunks along structural and sentence boundaries.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text content of this chunk.
	Content string

	// ArticleNumber is the article marker that opens this chunk, if any.
	ArticleNumber string

	// SectionTitle is the heading of the enclosing section, if any.
	SectionTitle string

	// Embedding is the vector representation for semantic search.
	// A chunk holds at most one current embedding per model id;
	// regeneration overwrites it.
	Embedding []float32

	// EmbeddingModelID identifies the model that produced Embedding.
	// Empty when the chunk has not been embedded.
	EmbeddingModelID string

	// CreatedAt is when the chunk was created.
	CreatedAt time.Time
}

// HasEmbedding reports whether the chunk carries an embedding for modelID.
func (c *Chunk) HasEmbedding(modelID string) bool {
	return len(c.Embedding) > 0 && c.EmbeddingModelID == modelID
}

// ChunkVector pairs a chunk id with its embedding, as loaded in bulk
// for index construction.
type ChunkVector struct {
	// ChunkID is the owning chunk.
	ChunkID string

	// Vector is the embedding.
	Vector []float32
}

// ChunkFilter narrows chunk loading from the store.
// Zero-value fields are ignored.
type ChunkFilter struct {
	// IDs restricts to specific chunk ids.
	IDs []string

	// DocumentID restricts to a single document.
	DocumentID string

	// MissingEmbedding selects only chunks without an embedding for ModelID.
	MissingEmbedding bool

	// ModelID qualifies MissingEmbedding.
	ModelID string
}
