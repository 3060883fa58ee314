package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// embeddingResponse builds an OpenAI-compatible embedding response body.
func embeddingResponse(tokens int, vecs ...[]float32) map[string]any {
	data := make([]map[string]any, 0, len(vecs))
	for i, v := range vecs {
		data = append(data, map[string]any{"object": "embedding", "embedding": v, "index": i})
	}
	return map[string]any{
		"object": "list",
		"model":  "test-model",
		"data":   data,
		"usage":  map[string]int{"prompt_tokens": tokens, "total_tokens": tokens},
	}
}

func newServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newEmbedder(baseURL, provider string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Model:    "test-model",
		Provider: provider,
		Logger:   zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}

	var gotReq struct {
		Input      []string `json:"input"`
		Model      string   `json:"model"`
		Dimensions int      `json:"dimensions"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingResponse(10, expectedVec))
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "test-model",
		Dimensions: 4,
		Provider:   "test",
		Logger:     zap.NewNop(),
	})

	result, err := emb.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("expected %d dimensions, got %d", len(expectedVec), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != expectedVec[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, expectedVec[i])
		}
	}
	if result.PromptTokens != 10 || result.TotalTokens != 10 {
		t.Errorf("usage = %d/%d, expected 10/10", result.PromptTokens, result.TotalTokens)
	}
	if len(gotReq.Input) != 1 || gotReq.Input[0] != "hello world" || gotReq.Dimensions != 4 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	srv := newServer(t, http.StatusOK, embeddingResponse(0))
	emb := newEmbedder(srv.URL, "empty")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues("empty", "test-model", "empty_response")); got != 1 {
		t.Errorf("empty_response errors = %v, want 1", got)
	}
}

func TestEmbedder_APIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantKind   string
		wantDetail string
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body: map[string]any{"error": map[string]any{
				"message": "rate limit exceeded", "type": "rate_limit_error",
			}},
			wantKind:   "rate_limited",
			wantDetail: "rate limit exceeded",
		},
		{
			name:       "nebius detail",
			status:     http.StatusBadRequest,
			body:       map[string]any{"detail": "input too long"},
			wantKind:   "api_error",
			wantDetail: "input too long",
		},
		{
			name:     "server error",
			status:   http.StatusBadGateway,
			body:     map[string]any{"error": map[string]any{"message": "upstream"}},
			wantKind: "server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			provider := "api-" + tt.wantKind
			emb := newEmbedder(srv.URL, provider)

			_, err := emb.Embed(context.Background(), "hello")
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
			}
			if tt.wantDetail != "" && !strings.Contains(err.Error(), tt.wantDetail) {
				t.Errorf("error %q lacks detail %q", err, tt.wantDetail)
			}
			if got := testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "test-model", tt.wantKind)); got != 1 {
				t.Errorf("%s errors = %v, want 1", tt.wantKind, got)
			}
		})
	}
}

func TestEmbedder_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	emb := newEmbedder(server.URL, "slow")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := emb.Embed(ctx, "hello")
	if !errors.Is(err, domain.ErrEmbeddingTimeout) {
		t.Fatalf("expected ErrEmbeddingTimeout, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Error("timeout must not be reported as a provider error")
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	srv := newServer(t, http.StatusOK, map[string]any{"object": "list", "data": []any{}})
	if err := newEmbedder(srv.URL, "health").HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	down := newServer(t, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"message": "down"}})
	if err := newEmbedder(down.URL, "health").HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error from unavailable provider")
	}
}

func TestStatusKind(t *testing.T) {
	cases := map[int]string{
		http.StatusTooManyRequests:     "rate_limited",
		http.StatusUnauthorized:        "auth_error",
		http.StatusForbidden:           "auth_error",
		http.StatusInternalServerError: "server_error",
		http.StatusBadRequest:          "api_error",
	}
	for code, want := range cases {
		if got := statusKind(code); got != want {
			t.Errorf("statusKind(%d) = %q, want %q", code, got, want)
		}
	}
}
