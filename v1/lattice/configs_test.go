package lattice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(EnvBaseURL, "")

	cfg := DefaultConfig()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "default", cfg.KnowledgeBase)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.EmbeddingModel)
}

func TestDefaultConfig_BaseURLFromEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://lattice.internal:8443")

	assert.Equal(t, "https://lattice.internal:8443", DefaultConfig().BaseURL)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvKnowledgeBase, "handbook")
	t.Setenv(EnvBaseURL, "https://lattice.example.com")
	t.Setenv(EnvEmbeddingModel, EmbeddingModelPrismaEmbed)
	t.Setenv(EnvTimeoutSeconds, "2.5")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "handbook", cfg.KnowledgeBase)
	assert.Equal(t, "https://lattice.example.com", cfg.BaseURL)
	assert.Equal(t, "prisma-embed", cfg.EmbeddingModel)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
}

func TestNewConfig_RejectsBadTimeout(t *testing.T) {
	for _, v := range []string{"soon", "-3", "0", "NaN", "1e300"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvTimeoutSeconds, v)

			_, err := NewConfig()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), EnvTimeoutSeconds)
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvKnowledgeBase, "handbook")
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvEmbeddingModel, "")
	t.Setenv(EnvTimeoutSeconds, " 90 ")

	cfg := Config{APIKey: "from-file", KnowledgeBase: "kb", BaseURL: "https://file.example.com", Timeout: time.Second}
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "handbook", cfg.KnowledgeBase)
	assert.Equal(t, "https://file.example.com", cfg.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestConfig_ApplyEnvBadTimeoutLeavesConfigUntouched(t *testing.T) {
	t.Setenv(EnvKnowledgeBase, "handbook")
	t.Setenv(EnvTimeoutSeconds, "soon")

	cfg := Config{KnowledgeBase: "kb", Timeout: time.Second}
	err := cfg.ApplyEnv()
	assert.True(t, IsValidationError(err))
	assert.Equal(t, Config{KnowledgeBase: "kb", Timeout: time.Second}, cfg)
}

func TestParseTimeoutSeconds(t *testing.T) {
	d, err := ParseTimeoutSeconds("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)

	_, err = ParseTimeoutSeconds("")
	assert.True(t, IsValidationError(err))
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing api key", Config{}, "api_key"},
		{"blank api key", Config{APIKey: "   "}, "api_key"},
		{"negative timeout", Config{APIKey: "k", Timeout: -time.Second}, "timeout"},
		{"unsupported scheme", Config{APIKey: "k", BaseURL: "ftp://lattice.example.com"}, "base_url"},
		{"missing host", Config{APIKey: "k", BaseURL: "http://"}, "base_url"},
		{"unparsable", Config{APIKey: "k", BaseURL: "http://[::1"}, "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, client)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")

	client, err := NewClient(Config{APIKey: "k", BaseURL: "https://lattice.example.com///"})
	require.NoError(t, err)

	cfg := client.Config()
	assert.Equal(t, "https://lattice.example.com", cfg.BaseURL)
	assert.Equal(t, DefaultKnowledgeBase, cfg.KnowledgeBase)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestConnect_Options(t *testing.T) {
	client, err := Connect("k",
		WithKnowledgeBase("handbook"),
		WithBaseURL("https://lattice.example.com/"),
		WithEmbeddingModel(EmbeddingModelDS1),
		WithTimeout(5*time.Second),
		WithHeader("X-Team", "search"),
	)
	require.NoError(t, err)

	cfg := client.Config()
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "handbook", cfg.KnowledgeBase)
	assert.Equal(t, "https://lattice.example.com", cfg.BaseURL)
	assert.Equal(t, "ds1", cfg.EmbeddingModel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, map[string]string{"X-Team": "search"}, cfg.Headers)
}

func TestConfig_IsCopied(t *testing.T) {
	headers := map[string]string{"X-Team": "search"}
	client, err := NewClient(Config{APIKey: "k", BaseURL: "http://localhost", Headers: headers})
	require.NoError(t, err)

	headers["X-Team"] = "changed"
	got := client.Config()
	assert.Equal(t, "search", got.Headers["X-Team"])

	got.Headers["X-Team"] = "mutated"
	got.KnowledgeBase = "other"
	assert.Equal(t, "search", client.Config().Headers["X-Team"])
	assert.Equal(t, DefaultKnowledgeBase, client.Config().KnowledgeBase)
}

func TestRequestHeaders(t *testing.T) {
	svc := newFakeService(t, respond(http.StatusOK, `{}`))
	client := svc.Client(
		WithHeader("Authorization", "Bearer hijacked"),
		WithHeader("X-Request-Source", "tests"),
	)

	_, err := client.Clear(context.Background(), ClearRequest{})
	require.NoError(t, err)

	h := svc.LastRequest().Header
	assert.Equal(t, "Bearer "+testAPIKey, h.Get("Authorization"))
	assert.Equal(t, "tests", h.Get("X-Request-Source"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, "lattice-go/"+Version, h.Get("User-Agent"))
}

func TestRequestHeaders_GetHasNoContentType(t *testing.T) {
	svc := newFakeService(t, respond(http.StatusOK, `{"progress":0}`))

	_, err := svc.Client().Progress(context.Background(), "job-1")
	require.NoError(t, err)

	h := svc.LastRequest().Header
	assert.Empty(t, h.Get("Content-Type"))
	assert.Equal(t, "Bearer "+testAPIKey, h.Get("Authorization"))
}

func TestBaseURL_TrailingSlash(t *testing.T) {
	svc := newFakeService(t, respond(http.StatusOK, `{}`))
	client := svc.Client(WithBaseURL(svc.server.URL + "/"))

	_, err := client.List(context.Background(), ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/api/rag/list", svc.LastRequest().Path)
}

func TestClient_ConcurrentCalls(t *testing.T) {
	// The service echoes each request back so responses can be matched to
	// the call that issued them.
	svc := newFakeService(t, func(w http.ResponseWriter, req recordedRequest) {
		switch req.Path {
		case "/api/rag/search":
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"results":[{"query":%q,"k":%v}]}`, req.Body["query"], req.Body["k"]))
		default:
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"page":%s,"per_page":%s,"documents":[]}`,
				req.Query.Get("page"), req.Query.Get("per_page")))
		}
	})
	client := svc.Client()

	const workers = 16

	g, ctx := errgroup.WithContext(context.Background())
	for i := 1; i <= workers; i++ {
		g.Go(func() error {
			query := fmt.Sprintf("query-%d", i)
			results, err := client.Search(ctx, SearchRequest{Query: query, K: i})
			if err != nil {
				return err
			}
			if len(results) != 1 {
				return fmt.Errorf("search %d: expected 1 result, got %d", i, len(results))
			}
			if got := results[0]["query"]; got != query {
				return fmt.Errorf("search %d: got results for %v", i, got)
			}
			if got := results[0]["k"]; got != json.Number(strconv.Itoa(i)) {
				return fmt.Errorf("search %d: got k %v", i, got)
			}
			return nil
		})
		g.Go(func() error {
			payload, err := client.List(ctx, ListRequest{Page: i, PerPage: 100 + i})
			if err != nil {
				return err
			}
			if got := payload["page"]; got != json.Number(strconv.Itoa(i)) {
				return fmt.Errorf("list %d: got page %v", i, got)
			}
			if got := payload["per_page"]; got != json.Number(strconv.Itoa(100+i)) {
				return fmt.Errorf("list %d: got per_page %v", i, got)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, svc.Requests(), 2*workers)
}
