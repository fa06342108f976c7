package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jobwatch/internal/model"
	"jobwatch/internal/poller"
	"jobwatch/internal/queue"
)

// --- Mock implementations ---

// CountingFetcher counts snapshot fetches across all pollers sharing it.
type CountingFetcher struct {
	calls atomic.Int32
}

func (f *CountingFetcher) FetchSnapshot(_ context.Context) (string, error) {
	f.calls.Add(1)
	return `{"jobs":[]}`, nil
}

// FakeStore serves a mutable employer list and absorbs snapshot writes.
type FakeStore struct {
	mu        sync.Mutex
	employers []model.Employer
}

func (s *FakeStore) GetSnapshot(_ string) (string, bool, error) { return "", false, nil }
func (s *FakeStore) UpsertSnapshot(_, _, _ string) error        { return nil }

func (s *FakeStore) ListEmployers() ([]model.Employer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Employer, len(s.employers))
	copy(out, s.employers)
	return out, nil
}

func (s *FakeStore) setEmployers(employers []model.Employer) {
	s.mu.Lock()
	s.employers = employers
	s.mu.Unlock()
}

// NopQueue accepts everything and reports an empty status.
type NopQueue struct{}

func (q *NopQueue) Enqueue(_ model.WorkItem) bool { return true }
func (q *NopQueue) Status() queue.Status          { return queue.Status{} }


func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(store *FakeStore, fetcher model.SnapshotFetcher, pollInterval, discoveryInterval time.Duration) *Scheduler {
	nq := &NopQueue{}
	factory := func(e model.Employer) *poller.EmployerPoller {
		return poller.NewEmployerPoller(e, fetcher, store, nq, discardLogger())
	}
	return NewScheduler(store, factory, pollInterval, discoveryInterval, nq, discardLogger())
}

func employers(names ...string) []model.Employer {
	out := make([]model.Employer, len(names))
	for i, n := range names {
		out[i] = model.Employer{Name: n, ExternalID: n + "-board"}
	}
	return out
}

// --- Tests ---

func TestRun_PollsImmediatelyOnStart(t *testing.T) {
	store := &FakeStore{}
	store.setEmployers(employers("acme", "globex"))
	fetcher := &CountingFetcher{}
	s := newTestScheduler(store, fetcher, time.Hour, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One immediate cycle over both employers, no interval ticks.
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2", got)
	}
}

func TestRun_PollsOnInterval(t *testing.T) {
	store := &FakeStore{}
	store.setEmployers(employers("acme"))
	fetcher := &CountingFetcher{}
	s := newTestScheduler(store, fetcher, 30*time.Millisecond, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Immediate cycle plus roughly three interval ticks.
	if got := fetcher.calls.Load(); got < 3 {
		t.Errorf("fetches = %d, want at least 3", got)
	}
}

func TestRun_DiscoveryPicksUpNewEmployers(t *testing.T) {
	store := &FakeStore{} // empty at start
	fetcher := &CountingFetcher{}
	s := newTestScheduler(store, fetcher, time.Hour, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(40 * time.Millisecond)
		store.setEmployers(employers("acme"))
	}()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// First non-empty discovery triggers an immediate poll despite the
	// hour-long poll interval.
	if got := fetcher.calls.Load(); got < 1 {
		t.Errorf("fetches = %d, want at least 1 after discovery", got)
	}
}

func TestRun_ReturnsNilOnCancel(t *testing.T) {
	store := &FakeStore{}
	s := newTestScheduler(store, &CountingFetcher{}, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
