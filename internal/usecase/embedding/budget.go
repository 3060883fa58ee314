package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// Counter TTLs outlive their period so a late restart still reads them.
const (
	dailyTTL   = 48 * time.Hour
	monthlyTTL = 62 * 24 * time.Hour
)

// BudgetStore persists counters across restarts.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetLimits caps tokens per UTC day and month. Zero means unlimited.
type BudgetLimits struct {
	Daily   int64
	Monthly int64
	Action  BudgetAction
}

// BudgetTracker keeps token usage in memory and writes behind to a store.
// Check never touches the store.
type BudgetTracker struct {
	mu          sync.Mutex
	limits      BudgetLimits
	provider    string
	keyPrefix   string
	dailyUsed   int64
	monthlyUsed int64
	day         time.Time
	month       time.Time
	store       BudgetStore
	now         func() time.Time
	logger      *zap.Logger
}

// NewBudgetTracker creates a tracker for one provider. keyPrefix namespaces
// persisted counters.
func NewBudgetTracker(provider, keyPrefix string, limits BudgetLimits, logger *zap.Logger) *BudgetTracker {
	b := &BudgetTracker{
		limits:    limits,
		provider:  provider,
		keyPrefix: keyPrefix,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
	b.day, b.month = periods(b.now())
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	b.rollover()
	if v, err := store.Get(ctx, b.dailyKey()); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily budget", zap.Error(err))
	}
	if v, err := store.Get(ctx, b.monthlyKey()); err == nil {
		b.monthlyUsed = v
	} else {
		b.logger.Warn("Failed to load monthly budget", zap.Error(err))
	}

	b.logger.Info("Embedding budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

// Check reports whether another request fits in the budget.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	dailyOver := b.limits.Daily > 0 && b.dailyUsed >= b.limits.Daily
	monthlyOver := b.limits.Monthly > 0 && b.monthlyUsed >= b.limits.Monthly
	if !dailyOver && !monthlyOver {
		return nil
	}
	if b.limits.Action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.limits.Daily),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.limits.Monthly),
	)
	return nil
}

// Record adds consumed tokens, then persists them if a store is attached.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store, dailyKey, monthlyKey := b.store, b.dailyKey(), b.monthlyKey()
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.IncrBy(ctx, dailyKey, tokens, dailyTTL); err != nil {
		b.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens, monthlyTTL); err != nil {
		b.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.limits.Daily, b.dailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.limits.Monthly, b.monthlyUsed)
}

// Used returns tokens consumed today and this month.
func (b *BudgetTracker) Used() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.dailyUsed, b.monthlyUsed
}

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	day, month := periods(b.now())
	if day.After(b.day) {
		b.dailyUsed = 0
		b.day = day
	}
	if month.After(b.month) {
		b.monthlyUsed = 0
		b.month = month
	}
}

func (b *BudgetTracker) dailyKey() string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", b.keyPrefix, b.provider, b.day.Format("2006-01-02"))
}

func (b *BudgetTracker) monthlyKey() string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.keyPrefix, b.provider, b.month.Format("2006-01"))
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func periods(t time.Time) (day, month time.Time) {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
