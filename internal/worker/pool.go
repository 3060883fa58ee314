// Package worker runs post-save jobs (embedding, HTML rendering) off the
// request path on a bounded queue.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/blogdex/internal/metrics"
)

// Defaults for pool sizing.
const (
	DefaultConcurrency = 2
	DefaultQueueSize   = 128
	DefaultJobTimeout  = 60 * time.Second
)

// Job is one unit of background work. Name labels logs and metrics.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config sizes the pool.
type Config struct {
	Concurrency int
	QueueSize   int
	JobTimeout  time.Duration
}

// Pool executes jobs with a fixed number of goroutines. Enqueue never blocks.
type Pool struct {
	cfg    Config
	queue  chan Job
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// New creates a pool. Start must be called before jobs execute.
func New(cfg Config, logger *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	return &Pool{cfg: cfg, queue: make(chan Job, cfg.QueueSize), logger: logger}
}

// Start launches the workers. Jobs inherit the values of ctx but not its
// cancellation: only Stop aborts them, so a shutdown signal on ctx still lets
// Stop drain the queue.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(ctx)
	for range p.cfg.Concurrency {
		g.Go(func() error {
			for job := range p.queue {
				metrics.WorkerQueueDepth.Set(float64(len(p.queue)))
				p.run(gctx, job)
			}
			return nil
		})
	}

	p.mu.Lock()
	p.group, p.cancel = g, cancel
	p.mu.Unlock()
}

// Enqueue schedules job. It returns false when the queue is full or the pool
// is stopped; the job is dropped in that case.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.drop(job, "pool stopped")
		return false
	}
	select {
	case p.queue <- job:
		metrics.WorkerQueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		p.drop(job, "queue full")
		return false
	}
}

// Stop closes the queue and waits for queued jobs to finish. When ctx ends
// first, running jobs are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	g, cancel := p.group, p.cancel
	p.mu.Unlock()

	if g == nil {
		return nil
	}
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

func (p *Pool) run(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, job)
	if err != nil {
		metrics.WorkerJobsTotal.WithLabelValues(job.Name, "failed").Inc()
		p.logger.Error("Background job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	metrics.WorkerJobsTotal.WithLabelValues(job.Name, "ok").Inc()
	p.logger.Debug("Background job done",
		zap.String("job", job.Name),
		zap.Duration("duration", time.Since(start)),
	)
}

func (p *Pool) drop(job Job, reason string) {
	metrics.WorkerJobsTotal.WithLabelValues(job.Name, "dropped").Inc()
	p.logger.Warn("Background job dropped", zap.String("job", job.Name), zap.String("reason", reason))
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job.Run(ctx)
}
