package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	redisx "github.com/Maheshi13/UNIVISTA-Project/internal/redis"
)

// Sliding window over a ZSET of hit timestamps.
// KEYS[1] bucket, ARGV: now_ms, window_ms, limit, hit id.
// Replies {allowed, count, retry_ms}.
const slidingWindowScript = `
local bucket = KEYS[1]
local now_ms = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', bucket, 0, now_ms - window_ms)
redis.call('ZADD', bucket, 'NX', now_ms, ARGV[4])
redis.call('PEXPIRE', bucket, window_ms)

local count = redis.call('ZCARD', bucket)
if count <= limit then
  return {1, count, 0}
end

local oldest = redis.call('ZRANGE', bucket, 0, 0, 'WITHSCORES')
local oldest_ms = tonumber(oldest[2]) or (now_ms - window_ms)
local retry_ms = window_ms - (now_ms - oldest_ms)
if retry_ms < 0 then
  retry_ms = 0
end
return {0, count, retry_ms}
`

// SlidingWindowLimiter throttles booking attempts per caller. It exists to
// blunt inventory-draining request floods, not as a fairness mechanism.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	script *redis.Script
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		script: redis.NewScript(slidingWindowScript),
	}
}

// Allow records one hit for the caller identified by id and reports whether
// it fits in the window, the current hit count, and how long to wait if
// not.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, id string) (allowed bool, current int64, retryAfter time.Duration, err error) {
	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{redisx.KeyRateLimit(l.scope, id)},
		time.Now().UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
		uuid.NewString(),
	).Result()
	if err != nil {
		return false, 0, 0, err
	}

	reply, ok := res.([]any)
	if !ok || len(reply) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	allowed = scriptInt(reply[0]) == 1
	current = scriptInt(reply[1])
	retryAfter = time.Duration(scriptInt(reply[2])) * time.Millisecond

	return allowed, current, retryAfter, nil
}

func scriptInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
