package lattice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// API paths, relative to Config.BaseURL.
const (
	pathAdd      = "/api/rag/add"
	pathProgress = "/api/rag/progress/"
	pathSearch   = "/api/rag/search"
	pathList     = "/api/rag/list"
	pathRemove   = "/api/rag/remove"
)

// Add submits a document to the knowledge base.
//
// The request is validated before anything is sent: exactly one of Text and
// Source must be set and MaxChars, when set, must be positive. Optional
// fields left nil are omitted from the body.
//
// For asynchronous submissions (the default) the result carries the job id
// read from the "id" field, falling back to "job_id"; a response with
// neither is a *ProtocolError. Synchronous submissions return the service
// payload unchanged.
//
//	res, err := client.Add(ctx, lattice.AddRequest{
//	    Source:   lattice.String("https://example.com/handbook.pdf"),
//	    MaxChars: lattice.Int(800),
//	})
func (c *LatticeClient) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	ctx, op := c.startOperation(ctx, "add", "")

	result, size, err := c.add(ctx, req)
	if err == nil && result.JobID != "" {
		op.setJobID(result.JobID)
	}

	op.finish(ctx, size, err)
	return result, err
}

// AddText submits raw text asynchronously and returns the job id.
func (c *LatticeClient) AddText(ctx context.Context, text string) (string, error) {
	res, err := c.Add(ctx, AddRequest{Text: &text, Async: Bool(true)})
	if err != nil {
		return "", err
	}
	return res.JobID, nil
}

// AddSource submits a source reference asynchronously and returns the job id.
func (c *LatticeClient) AddSource(ctx context.Context, source string) (string, error) {
	res, err := c.Add(ctx, AddRequest{Source: &source, Async: Bool(true)})
	if err != nil {
		return "", err
	}
	return res.JobID, nil
}

func (c *LatticeClient) add(ctx context.Context, req AddRequest) (AddResult, int64, error) {
	if err := validateAdd(req); err != nil {
		return AddResult{}, 0, err
	}

	async := true
	if req.Async != nil {
		async = *req.Async
	}
	chunker := req.Chunker
	if chunker == "" {
		chunker = DefaultChunker
	}

	body := addBody{
		KnowledgeBase:  c.cfg.KnowledgeBase,
		Chunker:        chunker,
		Async:          async,
		EmbeddingModel: c.embeddingModel(req.EmbeddingModel),
		MaxChars:       req.MaxChars,
		Path:           req.Path,
		Origin:         req.Origin,
		Text:           req.Text,
		Source:         req.Source,
	}

	payload, size, err := c.do(ctx, apiRequest{
		op:     "add",
		method: http.MethodPost,
		path:   pathAdd,
		body:   body,
	})
	if err != nil {
		return AddResult{}, size, err
	}

	if !async {
		return AddResult{Payload: payload}, size, nil
	}

	jobID, ok := extractJobID(payload)
	if !ok {
		return AddResult{}, size, &ProtocolError{Reason: "add job id missing from API response"}
	}
	return AddResult{JobID: jobID}, size, nil
}

func validateAdd(req AddRequest) error {
	switch {
	case req.Text == nil && req.Source == nil:
		return &ValidationError{Field: "text/source", Reason: "either text or source must be provided"}
	case req.Text != nil && req.Source != nil:
		return &ValidationError{Field: "text/source", Reason: "provide text or source, not both"}
	case req.MaxChars != nil && *req.MaxChars < 1:
		return &ValidationError{Field: "max_chars", Reason: "must be positive"}
	}
	return nil
}

// extractJobID reads "id" then "job_id". Null, empty and zero values count
// as absent. Numeric ids keep their literal digits.
func extractJobID(payload map[string]interface{}) (string, bool) {
	for _, key := range []string{"id", "job_id"} {
		if id, ok := jobIDString(payload[key]); ok {
			return id, true
		}
	}
	return "", false
}

func jobIDString(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		if f, err := id.Float64(); err == nil && f == 0 {
			return "", false
		}
		return id.String(), true
	default:
		return "", false
	}
}

// Progress returns the "progress" field of the job status, 0.0 when the
// service has not reported one yet.
func (c *LatticeClient) Progress(ctx context.Context, jobID string) (float64, error) {
	ctx, op := c.startOperation(ctx, "progress", jobID)

	payload, size, err := c.progress(ctx, jobID)
	var value float64
	if err == nil {
		value, err = progressValue(payload)
	}
	if err == nil {
		op.span.SetAttributes(attribute.Float64("lattice.progress", value))
	}

	op.finish(ctx, size, err)
	return value, err
}

// ProgressDetails returns the full job status payload unchanged.
func (c *LatticeClient) ProgressDetails(ctx context.Context, jobID string) (map[string]interface{}, error) {
	ctx, op := c.startOperation(ctx, "progress", jobID)

	payload, size, err := c.progress(ctx, jobID)

	op.finish(ctx, size, err)
	return payload, err
}

func (c *LatticeClient) progress(ctx context.Context, jobID string) (map[string]interface{}, int64, error) {
	if jobID == "" {
		return nil, 0, &ValidationError{Field: "job_id", Reason: "must not be empty"}
	}

	segment, err := pathParam("job_id", jobID)
	if err != nil {
		return nil, 0, &ValidationError{Field: "job_id", Reason: err.Error()}
	}

	return c.do(ctx, apiRequest{
		op:     "progress",
		method: http.MethodGet,
		path:   pathProgress + segment,
	})
}

// progressValue accepts a JSON number or a numeric string.
func progressValue(payload map[string]interface{}) (float64, error) {
	v, ok := payload["progress"]
	if !ok || v == nil {
		return 0.0, nil
	}

	switch p := v.(type) {
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, &ProtocolError{Reason: fmt.Sprintf("progress %s is not a number", p)}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, &ProtocolError{Reason: fmt.Sprintf("progress %q is not a number", p)}
		}
		return f, nil
	default:
		return 0, &ProtocolError{Reason: fmt.Sprintf("progress has unexpected type %s", jsonKind(v))}
	}
}

// Search queries the knowledge base and returns the result records as sent
// by the service. A response without "results" yields an empty slice.
//
//	hits, err := client.Search(ctx, lattice.SearchRequest{Query: "vacation policy", K: 3})
func (c *LatticeClient) Search(ctx context.Context, req SearchRequest) ([]map[string]interface{}, error) {
	ctx, op := c.startOperation(ctx, "search", "")

	results, size, err := c.search(ctx, req)
	if err == nil {
		op.span.SetAttributes(attribute.Int("lattice.results", len(results)))
	}

	op.finish(ctx, size, err)
	return results, err
}

func (c *LatticeClient) search(ctx context.Context, req SearchRequest) ([]map[string]interface{}, int64, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, 0, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if req.K < 0 {
		return nil, 0, &ValidationError{Field: "k", Reason: "must be at least 1"}
	}

	k := req.K
	if k == 0 {
		k = DefaultK
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = DefaultStrategy
	}

	payload, size, err := c.do(ctx, apiRequest{
		op:     "search",
		method: http.MethodPost,
		path:   pathSearch,
		body: searchBody{
			Query:          req.Query,
			K:              k,
			Strategy:       strategy,
			KnowledgeBase:  c.cfg.KnowledgeBase,
			EmbeddingModel: c.embeddingModel(req.EmbeddingModel),
		},
	})
	if err != nil {
		return nil, size, err
	}

	results, err := searchResults(payload)
	return results, size, err
}

func searchResults(payload map[string]interface{}) ([]map[string]interface{}, error) {
	raw, ok := payload["results"]
	if !ok || raw == nil {
		return []map[string]interface{}{}, nil
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, &ProtocolError{Reason: fmt.Sprintf("results must be an array, got %s", jsonKind(raw))}
	}

	results := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return nil, &ProtocolError{Reason: fmt.Sprintf("results[%d] must be an object, got %s", i, jsonKind(item))}
		}
		results = append(results, record)
	}
	return results, nil
}

// List returns one page of the knowledge base's documents. The payload,
// including its pagination metadata, is returned as sent by the service.
func (c *LatticeClient) List(ctx context.Context, req ListRequest) (map[string]interface{}, error) {
	ctx, op := c.startOperation(ctx, "list", "")

	payload, size, err := c.list(ctx, req)

	op.finish(ctx, size, err)
	return payload, err
}

func (c *LatticeClient) list(ctx context.Context, req ListRequest) (map[string]interface{}, int64, error) {
	if req.Page < 0 {
		return nil, 0, &ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if req.PerPage < 0 {
		return nil, 0, &ValidationError{Field: "per_page", Reason: "must be at least 1"}
	}

	page := req.Page
	if page == 0 {
		page = DefaultPage
	}
	perPage := req.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}

	params := []queryParam{
		{name: "page", value: page},
		{name: "per_page", value: perPage},
		{name: "knowledge_base", value: c.cfg.KnowledgeBase},
	}
	if model := c.embeddingModel(req.EmbeddingModel); model != nil {
		params = append(params, queryParam{name: "embedding_model", value: *model})
	}

	query := url.Values{}
	for _, p := range params {
		if err := addQueryParam(query, p.name, p.value); err != nil {
			return nil, 0, &ValidationError{Field: p.name, Reason: err.Error()}
		}
	}

	return c.do(ctx, apiRequest{
		op:     "list",
		method: http.MethodGet,
		path:   pathList,
		query:  query,
	})
}

// Clear removes every document of the knowledge base (restricted to the
// embedding model when one is configured) and returns the service's
// confirmation payload.
func (c *LatticeClient) Clear(ctx context.Context, req ClearRequest) (map[string]interface{}, error) {
	ctx, op := c.startOperation(ctx, "clear", "")

	payload, size, err := c.do(ctx, apiRequest{
		op:     "clear",
		method: http.MethodPost,
		path:   pathRemove,
		body: clearBody{
			KnowledgeBase:  c.cfg.KnowledgeBase,
			EmbeddingModel: c.embeddingModel(req.EmbeddingModel),
		},
	})

	op.finish(ctx, size, err)
	return payload, err
}
