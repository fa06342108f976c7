package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"jobwatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher calls a function on each invocation, tracking call count.
type mockFetcher struct {
	calls int
	fn    func(attempt int) (string, error)
}

func (m *mockFetcher) FetchSnapshot(_ context.Context) (string, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (string, error) {
		return `{"jobs":[]}`, nil
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"jobs":[]}` {
		t.Fatalf("unexpected snapshot: %q", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return `{"jobs":[]}`, nil
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "" {
		t.Fatal("expected snapshot after retry")
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchSnapshot(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry on 404), got %d", mock.calls)
	}
}

func TestRetry_HonorsRetryAfterOn429(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", &model.HTTPError{
				StatusCode: 429,
				RetryAfter: 20 * time.Millisecond,
				Err:        errors.New("rate limited"),
			}
		}
		return `{"jobs":[]}`, nil
	}}

	rf := NewRetryFetcher(mock, 2, 10*time.Second, discardLogger())
	start := time.Now()
	_, err := rf.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)
	// Retry-After (20ms) should override the 10s base delay.
	if elapsed > time.Second {
		t.Errorf("expected Retry-After to take precedence, waited %v", elapsed)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	}}

	rf := NewRetryFetcher(mock, 2, time.Millisecond, discardLogger())
	_, err := rf.FetchSnapshot(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rf := NewRetryFetcher(mock, 2, 10*time.Second, discardLogger())
	_, err := rf.FetchSnapshot(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
