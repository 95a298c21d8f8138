package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyWindow = "ratelimit:coach:%s"

// increments the window counter, starts its expiry on first use and returns {count, pttl}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// implements Limiter using Redis so the throttle is shared across instances
type RedisLimiter struct {
	client redis.UniversalClient
	config Config
}

// creates a new Redis-backed limiter
func NewRedisLimiter(client redis.UniversalClient, config Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		config: config.withDefaults(),
	}
}

// creates a new Redis-backed limiter from a URL
func NewRedisLimiterFromURL(redisURL string, config Config) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisLimiter(client, config), nil
}

// checks and records a request for the identity
func (l *RedisLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	key := fmt.Sprintf(keyWindow, identity)

	reply, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate rate limit window: %w", err)
	}

	return decisionFromReply(reply, l.config.MaxRequests)
}

// returns the underlying client so other components can share the connection
func (l *RedisLimiter) Client() redis.UniversalClient {
	return l.client
}

// closes the redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func decisionFromReply(reply []int64, maxRequests int) (Decision, error) {
	if len(reply) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply length %d", len(reply))
	}

	count, ttlMillis := reply[0], reply[1]

	if count <= int64(maxRequests) {
		return Decision{Allowed: true}, nil
	}

	return Decision{
		Allowed:    false,
		RetryAfter: time.Duration(ttlMillis) * time.Millisecond,
	}, nil
}
