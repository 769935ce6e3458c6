package lattice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// apiRequest is the input of the shared request primitive.
type apiRequest struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
}

// do performs one call against the service and returns the decoded JSON
// object together with the number of body bytes read.
//
// The rules, in order:
//   - a body that is not valid JSON becomes {"error": <raw text>}
//   - status >= 400 is a *ServiceError
//   - a JSON value that is not an object is a *ProtocolError
func (c *LatticeClient) do(ctx context.Context, r apiRequest) (map[string]interface{}, int64, error) {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, 0, &ValidationError{Field: "body", Reason: err.Error()}
		}
		body = bytes.NewReader(data)
	}

	target := c.cfg.BaseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, 0, &ValidationError{Field: "url", Reason: err.Error()}
	}

	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	// Written last: nothing above may replace the credentials.
	req.Header.Set(authorizationHeader, "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, int64(len(raw)), &TransportError{Op: r.op, Err: err}
	}
	size := int64(len(raw))

	payload := decodePayload(raw)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, size, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(payload),
		}
	}

	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, size, &ProtocolError{
			Reason: fmt.Sprintf("unexpected API response format: expected JSON object, got %s", jsonKind(payload)),
		}
	}
	return obj, size, nil
}

// decodePayload parses raw as a single JSON value, falling back to
// {"error": raw}. Numbers are kept as json.Number so large integers survive.
func decodePayload(raw []byte) interface{} {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return map[string]interface{}{"error": string(raw)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return map[string]interface{}{"error": string(raw)}
	}
	return payload
}

// errorMessage picks the message of a failed response: the "error" field of
// an object when present and non-null, otherwise the whole payload.
func errorMessage(payload interface{}) string {
	if obj, ok := payload.(map[string]interface{}); ok {
		if v, ok := obj["error"]; ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
			return stringify(v)
		}
	}
	return stringify(payload)
}

func stringify(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// pathParam escapes a single path segment.
func pathParam(name string, value interface{}) (string, error) {
	return runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
}

type queryParam struct {
	name  string
	value interface{}
}

// addQueryParam appends name=value to values using form style encoding.
func addQueryParam(values url.Values, name string, value interface{}) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return err
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return err
	}
	for k, vs := range parsed {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return nil
}

// embeddingModel resolves the model for one call: a non-empty override wins,
// then the client default; nil means the field is omitted.
func (c *LatticeClient) embeddingModel(override *string) *string {
	if override != nil && *override != "" {
		return override
	}
	if c.cfg.EmbeddingModel != "" {
		model := c.cfg.EmbeddingModel
		return &model
	}
	return nil
}
