package domain

import "time"

// QueryState tracks a search query through the orchestrator pipeline.
type QueryState string

// Query pipeline states.
const (
	// QueryStateIdle is the initial state before any work.
	QueryStateIdle QueryState = "idle"

	// QueryStateEncoding means the query text is being encoded.
	QueryStateEncoding QueryState = "encoding"

	// QueryStateRetrieving means candidates are being fetched from the index.
	QueryStateRetrieving QueryState = "retrieving"

	// QueryStateFiltering means threshold and metadata filters are applied.
	QueryStateFiltering QueryState = "filtering"

	// QueryStateRanking means candidates are being ordered.
	QueryStateRanking QueryState = "ranking"

	// QueryStateEnriching means document metadata is being attached.
	QueryStateEnriching QueryState = "enriching"

	// QueryStateDone is the successful terminal state.
	QueryStateDone QueryState = "done"

	// QueryStateFailed is the failure terminal state, reachable from any step.
	QueryStateFailed QueryState = "failed"
)

// String returns the string representation.
func (s QueryState) String() string {
	return string(s)
}

// SearchFilters are caller-supplied metadata filters applied to candidates.
// Empty fields match everything.
type SearchFilters struct {
	// DocType restricts to a document type.
	DocType string

	// Language restricts to a language code.
	Language string

	// Jurisdiction restricts to a jurisdiction.
	Jurisdiction string
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.DocType == "" && f.Language == "" && f.Jurisdiction == ""
}

// Signature returns a stable key fragment for query caching.
func (f SearchFilters) Signature() string {
	return f.DocType + "|" + f.Language + "|" + f.Jurisdiction
}

// Matches reports whether the document metadata satisfies the filters.
func (f SearchFilters) Matches(meta *DocumentMeta) bool {
	if meta == nil {
		return f.IsZero()
	}
	if f.DocType != "" && f.DocType != meta.DocType {
		return false
	}
	if f.Language != "" && f.Language != meta.Language {
		return false
	}
	if f.Jurisdiction != "" && f.Jurisdiction != meta.Jurisdiction {
		return false
	}
	return true
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of results.
	TopK int

	// Threshold is the minimum cosine similarity for a candidate to match.
	Threshold float64

	// Overfetch multiplies TopK when retrieving candidates, leaving room
	// for downstream filtering.
	Overfetch int

	// Filters are metadata filters applied to candidates.
	Filters SearchFilters
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64

	// Content is the chunk text.
	Content string

	// ArticleNumber is the article marker of the chunk, if any.
	ArticleNumber string

	// SectionTitle is the heading of the enclosing section, if any.
	SectionTitle string

	// Document is the source-document metadata.
	Document DocumentMeta
}

// SearchResponse is the full answer to a search query.
type SearchResponse struct {
	// Query echoes the query text back to the caller.
	Query string

	// Results is the ranked, threshold-filtered result list.
	Results []SearchResult

	// QueryDuration is the wall time spent answering.
	QueryDuration time.Duration

	// Degraded is true when the answer came from the brute-force
	// fallback rather than the ANN index.
	Degraded bool
}
