package domain

// EncoderProvider identifies an encoder backend.
type EncoderProvider string

// Available encoder providers.
const (
	// EncoderProviderOllama is a local Ollama instance.
	EncoderProviderOllama EncoderProvider = "ollama"

	// EncoderProviderOpenAI is the OpenAI embeddings API.
	EncoderProviderOpenAI EncoderProvider = "openai"
)

// IsValid returns true if the encoder provider is recognised.
func (p EncoderProvider) IsValid() bool {
	switch p {
	case EncoderProviderOllama, EncoderProviderOpenAI:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p EncoderProvider) String() string {
	return string(p)
}

// EncoderSettings configures the encoder backend.
type EncoderSettings struct {
	// Provider selects the backend.
	Provider EncoderProvider `toml:"provider"`

	// Model is the embedding model id (e.g. "arabert-legal-v2").
	Model string `toml:"model"`

	// BaseURL is the inference server base URL.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates against cloud providers.
	APIKey string `toml:"api_key"`

	// Dimensions is the expected vector size. Validated at initialisation.
	Dimensions int `toml:"dimensions"`

	// BatchSize is the number of texts per encoder call.
	BatchSize int `toml:"batch_size"`

	// Concurrency bounds parallel encoder calls during batch embedding.
	Concurrency int `toml:"concurrency"`
}

// IsConfigured returns true when the settings name a usable backend.
func (s *EncoderSettings) IsConfigured() bool {
	return s != nil && s.Provider.IsValid() && s.Model != ""
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	// BruteForceThreshold is the corpus size below which an exact scan
	// is used instead of an ANN structure.
	BruteForceThreshold int `toml:"brute_force_threshold"`

	// M is the HNSW connectivity parameter.
	M int `toml:"hnsw_m"`

	// EFConstruction is the HNSW build-time candidate list size.
	EFConstruction int `toml:"hnsw_ef_construction"`

	// EFSearch is the HNSW query-time candidate list size.
	EFSearch int `toml:"hnsw_ef_search"`
}

// SearchSettings configures query answering defaults.
// Threshold is encoder-dependent and must be recalibrated when the
// configured model changes; it lives in config for that reason.
type SearchSettings struct {
	// TopK is the default maximum result count.
	TopK int `toml:"top_k"`

	// Threshold is the default minimum similarity.
	Threshold float64 `toml:"threshold"`

	// Overfetch multiplies TopK when retrieving candidates.
	Overfetch int `toml:"overfetch"`
}

// CacheSettings configures the caches.
type CacheSettings struct {
	// EmbeddingEntries bounds the embedding cache.
	EmbeddingEntries int `toml:"embedding_entries"`

	// QueryEntries bounds the query result cache.
	QueryEntries int `toml:"query_entries"`
}

// ChunkerSettings configures text segmentation.
type ChunkerSettings struct {
	// MaxSize is the maximum chunk size in runes.
	MaxSize int `toml:"max_size"`

	// MinSize is the merge threshold for small fragments, in runes.
	MinSize int `toml:"min_size"`
}

// Settings is the full configuration tree persisted in config.toml.
type Settings struct {
	Encoder EncoderSettings `toml:"encoder"`
	Index   IndexSettings   `toml:"index"`
	Search  SearchSettings  `toml:"search"`
	Cache   CacheSettings   `toml:"cache"`
	Chunker ChunkerSettings `toml:"chunker"`
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		Encoder: EncoderSettings{
			Provider:    EncoderProviderOllama,
			Model:       "arabert-legal-v2",
			Dimensions:  768,
			BatchSize:   32,
			Concurrency: 4,
		},
		Index: IndexSettings{
			BruteForceThreshold: 1000,
			M:                   16,
			EFConstruction:      200,
			EFSearch:            100,
		},
		Search: SearchSettings{
			TopK:      10,
			Threshold: 0.7,
			Overfetch: 3,
		},
		Cache: CacheSettings{
			EmbeddingEntries: 10000,
			QueryEntries:     256,
		},
		Chunker: ChunkerSettings{
			MaxSize: 1500,
			MinSize: 200,
		},
	}
}

// Normalise fills zero-valued fields from defaults.
func (s *Settings) Normalise() {
	def := DefaultSettings()
	if s.Encoder.BatchSize <= 0 {
		s.Encoder.BatchSize = def.Encoder.BatchSize
	}
	if s.Encoder.Concurrency <= 0 {
		s.Encoder.Concurrency = def.Encoder.Concurrency
	}
	if s.Index.BruteForceThreshold <= 0 {
		s.Index.BruteForceThreshold = def.Index.BruteForceThreshold
	}
	if s.Index.M <= 0 {
		s.Index.M = def.Index.M
	}
	if s.Index.EFConstruction <= 0 {
		s.Index.EFConstruction = def.Index.EFConstruction
	}
	if s.Index.EFSearch <= 0 {
		s.Index.EFSearch = def.Index.EFSearch
	}
	if s.Search.TopK <= 0 {
		s.Search.TopK = def.Search.TopK
	}
	if s.Search.Threshold <= 0 {
		s.Search.Threshold = def.Search.Threshold
	}
	if s.Search.Overfetch <= 0 {
		s.Search.Overfetch = def.Search.Overfetch
	}
	if s.Cache.EmbeddingEntries <= 0 {
		s.Cache.EmbeddingEntries = def.Cache.EmbeddingEntries
	}
	if s.Cache.QueryEntries <= 0 {
		s.Cache.QueryEntries = def.Cache.QueryEntries
	}
	if s.Chunker.MaxSize <= 0 {
		s.Chunker.MaxSize = def.Chunker.MaxSize
	}
	if s.Chunker.MinSize <= 0 {
		s.Chunker.MinSize = def.Chunker.MinSize
	}
}
