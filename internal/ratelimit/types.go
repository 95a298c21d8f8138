// package ratelimit throttles coaching requests per identity with a fixed-window counter.
//
// two backends implement Limiter:
//   - MemoryLimiter keeps windows in a process-local map and is enough for a single instance
//   - RedisLimiter keeps windows in Redis so every instance enforces the same throttle
//
// a fixed window admits a burst straddling a window boundary; that is accepted.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow      = 10 * time.Second
	DefaultMaxRequests = 1

	// sweep interval is the window times this multiplier (one hour for the default window)
	SweepMultiplier = 360
)

// result of a throttle check
type Decision struct {
	Allowed bool

	// time until the current window closes, zero when allowed
	RetryAfter time.Duration
}

// decides whether an identity may make another request now
type Limiter interface {
	Allow(ctx context.Context, identity string) (Decision, error)
}

// window configuration shared by both backends
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// returns 1 request per 10 seconds
func DefaultConfig() Config {
	return Config{
		Window:      DefaultWindow,
		MaxRequests: DefaultMaxRequests,
	}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}

	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}

	return c
}

// interval at which expired memory windows are evicted
func (c Config) SweepInterval() time.Duration {
	return c.withDefaults().Window * SweepMultiplier
}
