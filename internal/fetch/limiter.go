package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// LimiterConfig describes the two independent budgets a [Limiter] enforces:
// MaxConcurrent bounds simultaneous in-flight requests, while the reservoir
// bounds throughput — it starts at Reservoir and is reset to RefreshAmount
// every RefreshInterval when it has dropped below that level.
type LimiterConfig struct {
	MaxConcurrent   int
	Reservoir       int
	RefreshAmount   int
	RefreshInterval time.Duration
}

// Limiter schedules requests against one upstream service.
// All methods are safe for concurrent use. Call [Limiter.Close] when done to
// stop the refill goroutine.
type Limiter struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	tokens int
	refill chan struct{} // closed and replaced on every refill

	done      chan struct{}
	closeOnce sync.Once
}

// NewLimiter creates a running Limiter from cfg. Non-positive values fall
// back to an effectively unlimited budget for that dimension.
func NewLimiter(cfg LimiterConfig) *Limiter {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = int(^uint(0) >> 2)
	}
	l := &Limiter{
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		tokens: cfg.Reservoir,
		refill: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if cfg.Reservoir <= 0 {
		l.tokens = int(^uint(0) >> 2)
	} else if cfg.RefreshAmount > 0 && cfg.RefreshInterval > 0 {
		go l.refillLoop(cfg.RefreshAmount, cfg.RefreshInterval)
	}
	return l
}

// Acquire blocks until a concurrency slot and a reservoir token are both
// available, or ctx is done. Callers must call [Limiter.Release] after the
// request completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := l.takeToken(ctx); err != nil {
		l.sem.Release(1)
		return err
	}
	return nil
}

// Release returns the concurrency slot taken by a successful Acquire.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// Close stops the refill goroutine. Safe to call multiple times and from
// multiple goroutines.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *Limiter) takeToken(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.tokens > 0 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := l.refill
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return context.Canceled
		case <-wait:
		}
	}
}

func (l *Limiter) refillLoop(amount int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			if l.tokens < amount {
				l.tokens = amount
			}
			close(l.refill)
			l.refill = make(chan struct{})
			l.mu.Unlock()
		}
	}
}
