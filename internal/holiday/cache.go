// AngelaMos | 2026
// cache.go

package holiday

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/memoria/internal/core"
)

const (
	regionsKey      = "holiday:regions"
	holidayKeyShape = "holiday:%s:%d"
)

// CachedCalendar fronts a Calendar with Redis. Cache failures are logged
// and fall through to the upstream.
type CachedCalendar struct {
	next   Calendar
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedCalendar(
	next Calendar,
	rdb redis.Cmdable,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedCalendar {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCalendar{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedCalendar) AvailableRegions(ctx context.Context) ([]Region, error) {
	return cached(ctx, c, regionsKey, func() ([]Region, error) {
		return c.next.AvailableRegions(ctx)
	})
}

func (c *CachedCalendar) PublicHolidays(
	ctx context.Context,
	year int,
	countryCode string,
) ([]Holiday, error) {
	key := fmt.Sprintf(holidayKeyShape, countryCode, year)
	return cached(ctx, c, key, func() ([]Holiday, error) {
		return c.next.PublicHolidays(ctx, year, countryCode)
	})
}

func cached[T any](
	ctx context.Context,
	c *CachedCalendar,
	key string,
	fetch func() ([]T, error),
) ([]T, error) {
	var hit []T
	found, err := core.GetJSON(ctx, c.rdb, key, &hit)
	if err != nil {
		c.logger.WarnContext(ctx, "holiday cache read failed", "key", key, "error", err)
	}
	if found {
		return hit, nil
	}

	fresh, err := fetch()
	if err != nil {
		return nil, err
	}

	if err := core.SetJSON(ctx, c.rdb, key, fresh, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "holiday cache write failed", "key", key, "error", err)
	}

	return fresh, nil
}

var _ Calendar = (*CachedCalendar)(nil)
