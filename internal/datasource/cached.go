package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/stockinsight/internal/infra"
	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

// Cached decorates a HistoryProvider with an in-memory TTL cache keyed by
// normalized code and count.
type Cached struct {
	next  HistoryProvider
	cache *infra.Cache[[]models.DailyBar]
}

// NewCached wraps next. A non-positive ttl returns next unchanged.
func NewCached(next HistoryProvider, ttl time.Duration) HistoryProvider {
	if ttl <= 0 {
		return next
	}
	return &Cached{next: next, cache: infra.NewCache[[]models.DailyBar](ttl)}
}

func (c *Cached) Name() string { return c.next.Name() + " (cached)" }

// DailyBars serves from cache when possible. Callers must not modify the result.
func (c *Cached) DailyBars(ctx context.Context, code string, count int) ([]models.DailyBar, error) {
	key := code
	if norm, err := utils.NormalizeCode(code); err == nil {
		key = norm
	}
	key = fmt.Sprintf("%s:%d", key, count)

	if bars, ok := c.cache.Get(key); ok {
		return bars, nil
	}
	bars, err := c.next.DailyBars(ctx, code, count)
	if err != nil {
		return nil, err
	}
	c.cache.Cleanup()
	c.cache.Set(key, bars)
	return bars, nil
}
