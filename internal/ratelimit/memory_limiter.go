package ratelimit

import (
	"context"
	"sync"
	"time"

	"codeberg.org/fittrack/server/internal/logger"
)

// implements Limiter with a process-local map
type MemoryLimiter struct {
	config Config
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// creates a new in-memory limiter. call StartSweeper to bound memory.
func NewMemoryLimiter(config Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config.withDefaults(),
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

// replaces the clock, used by tests
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// checks and records a request for the identity
func (l *MemoryLimiter) Allow(_ context.Context, identity string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, exists := l.entries[identity]

	if !exists || now.After(entry.resetAt) {
		l.entries[identity] = &window{
			count:   1,
			resetAt: now.Add(l.config.Window),
		}

		return Decision{Allowed: true}, nil
	}

	if entry.count < l.config.MaxRequests {
		entry.count++
		return Decision{Allowed: true}, nil
	}

	return Decision{
		Allowed:    false,
		RetryAfter: entry.resetAt.Sub(now),
	}, nil
}

// removes windows that have closed and returns how many were evicted
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0

	for identity, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, identity)
			evicted++
		}
	}

	return evicted
}

// number of tracked identities
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// runs Sweep on the configured interval until ctx is cancelled
func (l *MemoryLimiter) StartSweeper(ctx context.Context) {
	interval := l.config.SweepInterval()

	logger.Info("starting rate limit sweeper", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("rate limit sweeper stopped")
			return
		case <-ticker.C:
			if evicted := l.Sweep(); evicted > 0 {
				logger.Debug("evicted expired rate limit windows", "count", evicted)
			}
		}
	}
}
