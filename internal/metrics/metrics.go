// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blogdex"

var registerOnce sync.Once

// Register adds every collector to the default registry. Repeated calls are
// no-ops, so tests and main may both call it.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration, httpInFlight,
			EmbeddingRequestsTotal, EmbeddingRequestDuration, EmbeddingTokensTotal,
			EmbeddingCallsTotal, EmbeddingBudgetRemaining, EmbeddingCacheTotal,
			SearchRequestsTotal, SearchDuration, SearchCacheTotal, RateLimitDecisionsTotal,
			WorkerJobsTotal, WorkerQueueDepth,
		)
	})
}
