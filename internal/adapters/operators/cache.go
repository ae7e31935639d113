package operators

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cdrflow/internal/core/cdr"
	"cdrflow/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "cdrflow:operator:"

// Lookup is the method set every decorator wraps
type Lookup interface {
	Lookup(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error)
}

// Cached is a Redis read-through cache in front of another Lookup.
// Only successful answers are stored. A Redis outage degrades to calling
// next directly; it never fails a lookup.
type Cached struct {
	next Lookup
	rdb  redis.Cmdable
	ttl  time.Duration
	log  logger.Logger
}

// NewCached wraps next. A nil rdb or a non-positive ttl returns next unchanged.
func NewCached(next Lookup, rdb redis.Cmdable, ttl time.Duration) Lookup {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: *logger.Named("operators_cache")}
}

// CacheKey is the Redis key for number on day
func CacheKey(number string, day cdr.DayRef) string {
	return cacheKeyPrefix + number + ":" + day.String()
}

// Lookup serves from Redis when possible and fills it on a miss
func (c *Cached) Lookup(ctx context.Context, number string, day cdr.DayRef) (cdr.OperatorInfo, error) {
	key := CacheKey(number, day)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var info cdr.OperatorInfo
		jerr := json.Unmarshal(raw, &info)
		if jerr == nil {
			return info, nil
		}
		c.log.Warn().Err(jerr).Str("key", key).Msg("operators cache entry unreadable")
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("operators cache read failed")
	}

	info, err := c.next.Lookup(ctx, number, day)
	if err != nil {
		return cdr.OperatorInfo{}, err
	}

	b, err := json.Marshal(info)
	if err == nil {
		err = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("operators cache write failed")
	}
	return info, nil
}
