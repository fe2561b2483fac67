package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// hitLua returns {allowed, count, ttl_ms}. Key expiry is the window reset.
var hitLua = redis.NewScript(`
local maxAttempts = tonumber(ARGV[1])
local windowMs = tonumber(ARGV[2])

local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', windowMs)
  return {1, 1, windowMs}
end

local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('SET', KEYS[1], 1, 'PX', windowMs)
  return {1, 1, windowMs}
end

local count = tonumber(current)
if count >= maxAttempts then
  return {0, count, ttl}
end

count = redis.call('INCR', KEYS[1])
return {1, count, ttl}
`)

// RedisStore keeps windows as expiring counters.
type RedisStore struct {
	redis redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) Hit(ctx context.Context, identifier string, action domain.RateLimitAction, p Policy, now time.Time) (Decision, error) {
	res, err := hitLua.Run(ctx, s.redis, []string{redisKey(action, identifier)}, p.Max, p.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit hit: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit hit: unexpected reply %v", res)
	}
	return Decision{
		Allowed:    res[0] == 1,
		Count:      int(res[1]),
		RetryAfter: now.Add(time.Duration(res[2]) * time.Millisecond),
	}, nil
}

func redisKey(action domain.RateLimitAction, identifier string) string {
	return "rl:" + string(action) + ":" + identifier
}
