// Package embedding guards provider calls with a token budget and records
// per-purpose usage.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/logger"
	"github.com/kailas-cloud/blogdex/internal/metrics"
)

// Embedding purposes, used as the "purpose" metric label.
const (
	PurposePost  = "post"
	PurposeQuery = "query"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// MeteredEmbedder refuses calls once the token budget is spent and counts
// the calls that go through. Provider-level metrics live in transport/openai.
type MeteredEmbedder struct {
	inner   domain.Embedder
	purpose string
	budget  BudgetChecker
	logger  *zap.Logger
}

// NewMeteredEmbedder wraps inner for one purpose. budget may be nil.
func NewMeteredEmbedder(inner domain.Embedder, purpose string, budget BudgetChecker, log *zap.Logger) *MeteredEmbedder {
	if log == nil {
		log = zap.NewNop()
	}
	return &MeteredEmbedder{inner: inner, purpose: purpose, budget: budget, logger: log}
}

// Embed implements domain.Embedder.
func (m *MeteredEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	log := logger.FromContextOr(ctx, m.logger).With(zap.String("purpose", m.purpose))

	if m.budget != nil {
		if err := m.budget.Check(ctx); err != nil {
			metrics.EmbeddingCallsTotal.WithLabelValues(m.purpose, "over_budget").Inc()
			log.Warn("Embedding refused: token budget spent", zap.Error(err))
			return domain.EmbeddingResult{}, fmt.Errorf("%s embedding: %w", m.purpose, err)
		}
	}

	start := time.Now()
	res, err := m.inner.Embed(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		metrics.EmbeddingCallsTotal.WithLabelValues(m.purpose, "error").Inc()
		log.Error("Embedding failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("%s embedding: %w", m.purpose, err)
	}
	metrics.EmbeddingCallsTotal.WithLabelValues(m.purpose, "ok").Inc()

	// Cache hits report zero tokens and cost nothing.
	if m.budget != nil && res.TotalTokens > 0 {
		m.budget.Record(int64(res.TotalTokens))
		metrics.EmbeddingBudgetRemaining.WithLabelValues("daily").Set(float64(m.budget.RemainingDaily()))
		metrics.EmbeddingBudgetRemaining.WithLabelValues("monthly").Set(float64(m.budget.RemainingMonthly()))
	}

	if ce := log.Check(zap.DebugLevel, "Embedded text"); ce != nil {
		ce.Write(
			zap.Int("chars", len(text)),
			zap.Int("tokens", res.TotalTokens),
			zap.Duration("elapsed", elapsed),
		)
	}
	return res, nil
}
