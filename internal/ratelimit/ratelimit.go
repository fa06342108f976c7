package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobwatch/internal/model"
)

// BoardRateLimiter enforces a minimum delay between requests to the same
// job board backend. All employer fetchers share one limiter so a tick that
// polls many employers cannot hammer the API.
type BoardRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: board name
	minDelay time.Duration
}

// NewBoardRateLimiter creates a limiter enforcing minDelay between
// consecutive requests to the same board.
func NewBoardRateLimiter(minDelay time.Duration) *BoardRateLimiter {
	return &BoardRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given board. Returns an error if the context is cancelled while waiting.
func (r *BoardRateLimiter) Wait(ctx context.Context, board string) error {
	r.mu.Lock()
	last, ok := r.lastCall[board]
	now := time.Now()

	if !ok {
		// First request for this board — no wait needed.
		r.lastCall[board] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[board] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", board, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	r.mu.Lock()
	r.lastCall[board] = time.Now()
	r.mu.Unlock()

	return nil
}

// RateLimitedFetcher is a decorator that applies board-level rate limiting
// before delegating to the wrapped SnapshotFetcher.
type RateLimitedFetcher struct {
	inner   model.SnapshotFetcher
	limiter *BoardRateLimiter
	board   string
}

// NewRateLimitedFetcher wraps a SnapshotFetcher with board-level rate
// limiting. Fetchers targeting the same board should share one limiter.
func NewRateLimitedFetcher(inner model.SnapshotFetcher, limiter *BoardRateLimiter, board string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		board:   board,
	}
}

// FetchSnapshot waits for the rate limiter to allow a request, then
// delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchSnapshot(ctx context.Context) (string, error) {
	if err := f.limiter.Wait(ctx, f.board); err != nil {
		return "", err
	}
	return f.inner.FetchSnapshot(ctx)
}
