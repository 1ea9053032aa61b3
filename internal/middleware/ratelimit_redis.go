package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/support-totem125/vcc-totem/internal/redis"
)

// Scores are unix milliseconds; the reset time returned is in milliseconds too.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local count = redis.call('ZCARD', key)
local resetAt = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest == 2 then
    resetAt = tonumber(oldest[2]) + window
end

if count >= limit then
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)

return {1, limit - count - 1, resetAt}
`)

const redisRateLimitBucket = "ratelimit"

// RedisRateLimiter shares the sliding window across server instances.
type RedisRateLimiter struct {
	client *redisclient.Client
}

func NewRedisRateLimiter(client *redisclient.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Check fails open when Redis is unreachable.
func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit int) (bool, int, int64) {
	now := time.Now()
	fallbackReset := now.Add(windowDuration).Unix()

	result, err := rateLimitScript.Run(ctx, rl.client,
		[]string{rl.client.Key(redisRateLimitBucket, key)},
		now.UnixMilli(), windowDuration.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("client", key).Msg("redis rate limit check failed, allowing request")
		return true, limit - 1, fallbackReset
	}
	if len(result) != 3 {
		log.Warn().Str("client", key).Msg("unexpected redis rate limit result")
		return true, limit - 1, fallbackReset
	}

	return result[0] == 1, int(result[1]), result[2] / 1000
}
