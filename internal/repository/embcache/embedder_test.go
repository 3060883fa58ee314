package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var (
		setKey string
		setTTL time.Duration
	)
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	res, err := ce.Embed(context.Background(), "post text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 10 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasPrefix(setKey, "blogdex:emb:") || setTTL != time.Hour {
		t.Fatalf("unexpected SET key=%q ttl=%v", setKey, setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	cached := encodeVector([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return cached, nil }

	res, err := ce.Embed(context.Background(), "post text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Fatal("inner embedder must not be called on a hit")
	}
	if len(res.Embedding) != 3 || res.Embedding[1] != 0.5 || res.TotalTokens != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestEmbed_StoreErrorsAreSoft(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, errors.New("timeout") }
	ms.setFn = func(context.Context, string, []byte, time.Duration) error { return errors.New("timeout") }

	res, err := ce.Embed(context.Background(), "x")
	if err != nil || len(res.Embedding) != 2 {
		t.Fatalf("store failures must not fail Embed: %+v %v", res, err)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) { return []byte{1, 2, 3}, nil }

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected fallback to inner, calls=%d", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	boom := errors.New("provider down")
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{err: boom})
	if _, err := ce.Embed(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestKey_ScopedByModel(t *testing.T) {
	ms := &mockKVStore{}
	a := New(nil, ms, Config{Model: "m1"}, nil, zap.NewNop())
	b := New(nil, ms, Config{Model: "m2"}, nil, zap.NewNop())
	if a.Key("text") == b.Key("text") {
		t.Fatal("keys must differ across models")
	}
	if a.Key("text") != a.Key("text") {
		t.Fatal("keys must be stable")
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	ms := &mockKVStore{}
	ce := New(&mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}, ms,
		Config{TTL: time.Minute}, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "x")
	ms.getFn = func(context.Context, string) ([]byte, error) { return encodeVector([]float32{1}), nil }
	_, _ = ce.Embed(context.Background(), "x")

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v", got)
	}
}
