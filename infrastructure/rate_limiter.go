package infrastructure

import (
	"context"
	"sync"
	"time"
)

// RateLimiter gates how fast a consumer processes messages. Injected rather
// than constructed inline so tests can swap in an unlimited one.
type RateLimiter interface {
	// Wait blocks until a token is available or the context is done
	Wait(ctx context.Context) error
}

// tokenBucketLimiter refills up to ratePerSecond tokens each second.
type tokenBucketLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
}

// NewTokenBucketLimiter creates a rate limiter allowing ratePerSecond
// operations with bursts up to the same size.
func NewTokenBucketLimiter(ratePerSecond int) RateLimiter {
	return &tokenBucketLimiter{
		tokens:     float64(ratePerSecond),
		capacity:   float64(ratePerSecond),
		refillRate: float64(ratePerSecond),
		lastRefill: time.Now(),
	}
}

func (l *tokenBucketLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		// Time until the next token becomes available
		wait := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *tokenBucketLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.lastRefill = now

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
}

// unlimitedLimiter never blocks.
type unlimitedLimiter struct{}

// NewUnlimitedLimiter creates a rate limiter that never blocks.
func NewUnlimitedLimiter() RateLimiter {
	return unlimitedLimiter{}
}

func (unlimitedLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}
