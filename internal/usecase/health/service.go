// Package health probes the stores and the embedding provider.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the post store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentRedis     = "redis"
	ComponentEmbedding = "embedding"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Pinger is a backing store that answers a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	db        Pinger
	redis     Pinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. redis and embedding can be nil.
func New(db, redis Pinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, redis: redis, embedding: embedding, timeout: defaultCheckTimeout}
}

// Check probes all components concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{ComponentDatabase: s.db.Ping}
	if s.redis != nil {
		probes[ComponentRedis] = s.redis.Ping
	}
	if s.embedding != nil {
		probes[ComponentEmbedding] = s.embedding.HealthCheck
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(probes))
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := probe(pctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentDatabase] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
