package ratelimit

import (
	"context"
	"fmt"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Memory is an in-process fixed-window limiter for single-instance deployments.
type Memory struct {
	limiter *limiter.Limiter
	prefix  string
}

// NewMemory creates an in-process limiter with the same quota semantics as Store.
func NewMemory(cfg Config) *Memory {
	rate := limiter.Rate{Period: cfg.Window, Limit: int64(cfg.MaxRequests)}
	return &Memory{
		limiter: limiter.New(memory.NewStore(), rate),
		prefix:  cfg.Prefix,
	}
}

// Allow counts one request from identity and reports whether it fits the quota.
func (m *Memory) Allow(ctx context.Context, identity string) (bool, error) {
	lctx, err := m.limiter.Get(ctx, Key(m.prefix, identity))
	if err != nil {
		return false, fmt.Errorf("ratelimit memory get: %w", err)
	}
	return !lctx.Reached, nil
}
