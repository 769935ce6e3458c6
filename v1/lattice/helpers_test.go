package lattice

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

// recordedRequest is what the fake service saw for one call.
type recordedRequest struct {
	Method      string
	Path        string
	EscapedPath string
	Query       map[string][]string
	Header      http.Header
	RawBody     string
	Body        map[string]interface{}
}

// fakeService is an httptest server standing in for the Lattice API.
type fakeService struct {
	t       *testing.T
	server  *httptest.Server
	handler func(w http.ResponseWriter, req recordedRequest)

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeService(t *testing.T, handler func(w http.ResponseWriter, req recordedRequest)) *fakeService {
	t.Helper()
	f := &fakeService{t: t, handler: handler}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		EscapedPath: r.URL.EscapedPath(),
		Query:       r.URL.Query(),
		Header:      r.Header.Clone(),
		RawBody:     string(raw),
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	f.handler(w, rec)
}

func (f *fakeService) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeService) LastRequest() recordedRequest {
	f.t.Helper()
	reqs := f.Requests()
	require.NotEmpty(f.t, reqs, "expected at least one request")
	return reqs[len(reqs)-1]
}

func (f *fakeService) Client(opts ...Option) *LatticeClient {
	f.t.Helper()
	opts = append([]Option{WithBaseURL(f.server.URL), WithKnowledgeBase("kb")}, opts...)
	client, err := Connect(testAPIKey, opts...)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = client.Close() })
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// respond returns a handler that always answers with status and body.
func respond(status int, body string) func(http.ResponseWriter, recordedRequest) {
	return func(w http.ResponseWriter, _ recordedRequest) {
		writeJSON(w, status, body)
	}
}

func bodyKeys(body map[string]interface{}) []string {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	return keys
}
