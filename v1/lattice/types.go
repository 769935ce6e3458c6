package lattice

// Client-side defaults for request fields.
const (
	DefaultChunker  = "punct"
	DefaultStrategy = "auto"
	DefaultK        = 5
	DefaultPage     = 1
	DefaultPerPage  = 50
)

// AddRequest describes one document submission. Exactly one of Text and
// Source must be set.
//
// Pointer fields are optional: nil means "not supplied" and the field is
// left out of the request body so the service applies its own default.
type AddRequest struct {
	// Text is the raw document content.
	Text *string

	// Source references content the service fetches itself (URL, path, ...).
	Source *string

	// Chunker selects the splitting strategy. Empty means "punct".
	Chunker string

	// Async selects the response variant. nil means true: the service
	// returns a job id to poll. false waits for ingestion and returns the
	// service payload.
	Async *bool

	// EmbeddingModel overrides the client default for this call.
	EmbeddingModel *string

	// MaxChars caps the chunk size. Must be positive when set.
	MaxChars *int

	// Path is a logical location attached to the document.
	Path *string

	// Origin describes where the document came from.
	Origin *string
}

// AddResult holds exactly one of the two Add outcomes.
type AddResult struct {
	// JobID is set for asynchronous submissions.
	JobID string

	// Payload is the service response for synchronous submissions.
	Payload map[string]interface{}
}

// IsAsync reports whether the result carries a job id.
func (r AddResult) IsAsync() bool { return r.Payload == nil }

// SearchRequest describes a query. Zero values select the defaults.
type SearchRequest struct {
	// Query is the search text. Required.
	Query string

	// K is the number of results. 0 means 5; negative is rejected.
	K int

	// Strategy is the retrieval strategy. Empty means "auto".
	Strategy string

	// EmbeddingModel overrides the client default for this call.
	EmbeddingModel *string
}

// ListRequest selects one page of documents. Zero values select the defaults.
type ListRequest struct {
	// Page is 1-based. 0 means 1; negative is rejected.
	Page int

	// PerPage is the page size. 0 means 50; negative is rejected.
	PerPage int

	// EmbeddingModel overrides the client default for this call.
	EmbeddingModel *string
}

// ClearRequest scopes a clear operation.
type ClearRequest struct {
	// EmbeddingModel overrides the client default for this call.
	EmbeddingModel *string
}

// addBody is the wire form of AddRequest.
type addBody struct {
	KnowledgeBase  string  `json:"knowledge_base"`
	Chunker        string  `json:"chunker"`
	Async          bool    `json:"async"`
	EmbeddingModel *string `json:"embedding_model,omitempty"`
	MaxChars       *int    `json:"max_chars,omitempty"`
	Path           *string `json:"path,omitempty"`
	Origin         *string `json:"origin,omitempty"`
	Text           *string `json:"text,omitempty"`
	Source         *string `json:"source,omitempty"`
}

type searchBody struct {
	Query          string  `json:"query"`
	K              int     `json:"k"`
	Strategy       string  `json:"strategy"`
	KnowledgeBase  string  `json:"knowledge_base"`
	EmbeddingModel *string `json:"embedding_model,omitempty"`
}

type clearBody struct {
	KnowledgeBase  string  `json:"knowledge_base"`
	EmbeddingModel *string `json:"embedding_model,omitempty"`
}

// String returns a pointer to v, for optional request fields.
func String(v string) *string { return &v }

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional request fields.
func Bool(v bool) *bool { return &v }
