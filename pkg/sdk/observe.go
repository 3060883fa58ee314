package blogdex

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/blogdex/internal/domain"
)

// Operation outcomes reported in the "status" label.
const (
	outcomeOK          = "ok"
	outcomeNotFound    = "not_found"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blogdex",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "SDK operations by name and outcome.",
	}, []string{"operation", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blogdex",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "SDK operation latency in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	if err := registerOrReuse(reg, &operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &duration); err != nil {
		return nil, err
	}
	return &sdkMetrics{operations: operations, duration: duration}, nil
}

// registerOrReuse registers c, or swaps in the collector a previous client
// already registered on reg.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("blogdex: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("blogdex: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcome buckets err for metrics and log levels.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrPostNotFound), errors.Is(err, domain.ErrEmpty),
		errors.Is(err, domain.ErrOutOfRange):
		return outcomeNotFound
	case errors.Is(err, domain.ErrInvalidPost), errors.Is(err, domain.ErrReservedSlug),
		errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrQueryTooLong),
		errors.Is(err, domain.ErrInvalidPagination), errors.Is(err, domain.ErrAlreadyExists):
		return outcomeInvalid
	case errors.Is(err, domain.ErrEmbeddingProviderError), errors.Is(err, domain.ErrEmbeddingTimeout),
		errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return outcomeUnavailable
	default:
		return outcomeError
	}
}

// observer logs and measures SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch status {
	case outcomeOK:
		o.logger.Debug("blogdex operation", "op", op, "duration", dur)
	case outcomeNotFound, outcomeInvalid:
		o.logger.Info("blogdex operation rejected", "op", op, "status", status, "error", err)
	default:
		o.logger.Warn("blogdex operation failed", "op", op, "status", status, "duration", dur, "error", err)
	}
}
