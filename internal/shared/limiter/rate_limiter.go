// Package limiter Redis 令牌桶限流
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 令牌桶，原子执行
const tokenBucketScript = `
local tokens_key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local expire_seconds = math.ceil(tonumber(ARGV[5]))

local bucket = redis.call("HMGET", tokens_key, "tokens", "last_refill")
local tokens = tonumber(bucket[1])
local last_refill = tonumber(bucket[2])

if tokens == nil then
	tokens = capacity
	last_refill = now
else
	tokens = math.min(capacity, tokens + (now - last_refill) * rate)
	last_refill = now
end

local allowed = 0
if tokens >= requested then
	tokens = tokens - requested
	allowed = 1
end
redis.call("HSET", tokens_key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", tokens_key, expire_seconds)
return allowed
`

// RedisRateLimiter 多实例共享的限流器
type RedisRateLimiter struct {
	rdb        *redis.Client
	prefix     string
	rate       float64 // 每秒补充的令牌数
	capacity   float64
	expiration time.Duration
	script     *redis.Script
}

// New 每 interval 允许 limit 次请求
func New(rdb *redis.Client, prefix string, limit int, interval time.Duration) (*RedisRateLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("rate limit interval must be positive")
	}
	return &RedisRateLimiter{
		rdb:        rdb,
		prefix:     prefix,
		rate:       float64(limit) / interval.Seconds(),
		capacity:   float64(limit),
		expiration: interval * 2,
		script:     redis.NewScript(tokenBucketScript),
	}, nil
}

// Allow identifier 一般是客户端 IP
func (l *RedisRateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.key(identifier)
	now := float64(time.Now().UnixNano()) / 1e9

	result, err := l.script.Run(ctx, l.rdb, []string{key}, l.rate, l.capacity, now, 1, l.expiration.Seconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit script: %w", err)
	}
	return result == 1, nil
}

// key 形如 <prefix>ratelimit:<identifier>
func (l *RedisRateLimiter) key(identifier string) string {
	return fmt.Sprintf("%sratelimit:%s", l.prefix, identifier)
}
