package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider calls, as seen by the HTTP client.
var (
	// EmbeddingRequestsTotal counts provider round trips. result is "ok" or
	// an error kind such as "timeout" or "rate_limited".
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "provider_requests_total",
		Help:      "Embedding provider requests by result.",
	}, []string{"provider", "model", "result"})

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "provider_request_seconds",
		Help:      "Latency of successful embedding provider requests.",
		Buckets:   prometheus.ExponentialBuckets(0.025, 2, 10),
	}, []string{"provider", "model"})

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "provider_tokens_total",
		Help:      "Tokens billed by the embedding provider.",
	}, []string{"provider", "model"})
)

// Embedding use inside the service.
var (
	// EmbeddingCallsTotal counts embeddings by purpose (post, query) and
	// outcome (ok, error, over_budget).
	EmbeddingCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "calls_total",
		Help:      "Embeddings requested by the service.",
	}, []string{"purpose", "outcome"})

	EmbeddingBudgetRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "budget_tokens_remaining",
		Help:      "Tokens left in the current budget period.",
	}, []string{"period"})

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_lookups_total",
		Help:      "Post embedding cache lookups by result (hit, miss).",
	}, []string{"result"})
)
