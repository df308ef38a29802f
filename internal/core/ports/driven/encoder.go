package driven

import "context"

// Encoder is the capability interface for a text encoder backend.
// Variants are registered explicitly and selected at configuration time;
// no dynamic model-name dispatch happens anywhere else.
//
// Implementations may include:
//   - Ollama (local inference server hosting a legal-domain model)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type Encoder interface {
	// Embed generates a vector embedding for the given text.
	// Deterministic for a fixed model and input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call when
	// the backend supports it.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// Fixed per model id; validated once at initialisation.
	Dimensions() int

	// Identifier returns the model id of this encoder.
	Identifier() string

	// Ping validates the backend is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
