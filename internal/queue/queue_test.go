package queue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"jobwatch/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(employer string) model.WorkItem {
	return model.WorkItem{
		Employer: model.Employer{Name: employer, ExternalID: employer},
		Postings: []model.Posting{{ID: "1", Title: "Engineer", IsListed: true}},
	}
}

// recordingHandler blocks each Process call until released, so tests can
// observe the queue with handlers in flight.
type recordingHandler struct {
	mu      sync.Mutex
	started []string
	release chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{release: make(chan struct{})}
}

func (h *recordingHandler) Process(_ context.Context, it model.WorkItem) {
	h.mu.Lock()
	h.started = append(h.started, it.Employer.Name)
	h.mu.Unlock()
	<-h.release
}

func (h *recordingHandler) startedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.started)
}

func (h *recordingHandler) startedNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.started))
	copy(out, h.started)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEnqueueDispatchesUpToMaxConcurrent(t *testing.T) {
	h := newRecordingHandler()
	q := New(context.Background(), 10, 2, h, testLogger())

	for _, name := range []string{"a", "b", "c"} {
		if !q.Enqueue(item(name)) {
			t.Fatalf("Enqueue(%s) rejected", name)
		}
	}

	waitFor(t, func() bool { return h.startedCount() == 2 })

	st := q.Status()
	if st.Active != 2 {
		t.Errorf("active = %d, want 2", st.Active)
	}
	if st.Queued != 1 {
		t.Errorf("queued = %d, want 1", st.Queued)
	}

	close(h.release)
	q.Drain()

	waitFor(t, func() bool { return h.startedCount() == 3 })
	st = q.Status()
	if st.Active != 0 || st.Queued != 0 {
		t.Errorf("after drain status = %+v, want empty", st)
	}
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	h := newRecordingHandler()
	q := New(context.Background(), 2, 1, h, testLogger())

	// First item dispatches immediately and blocks in the handler.
	if !q.Enqueue(item("a")) {
		t.Fatal("Enqueue(a) rejected")
	}
	waitFor(t, func() bool { return h.startedCount() == 1 })

	// Two more fill the backlog.
	if !q.Enqueue(item("b")) {
		t.Fatal("Enqueue(b) rejected")
	}
	if !q.Enqueue(item("c")) {
		t.Fatal("Enqueue(c) rejected")
	}
	if q.Enqueue(item("d")) {
		t.Error("Enqueue(d) accepted, want rejection at capacity")
	}

	close(h.release)
	q.Drain()
}

func TestFIFOOrder(t *testing.T) {
	h := newRecordingHandler()
	q := New(context.Background(), 10, 1, h, testLogger())

	for _, name := range []string{"a", "b", "c"} {
		q.Enqueue(item(name))
	}
	close(h.release)
	q.Drain()

	got := h.startedNames()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("started = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("started[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCompletionFreesSlotForNextItem(t *testing.T) {
	h := newRecordingHandler()
	q := New(context.Background(), 10, 1, h, testLogger())

	q.Enqueue(item("a"))
	q.Enqueue(item("b"))
	waitFor(t, func() bool { return h.startedCount() == 1 })

	if got := q.Status().Queued; got != 1 {
		t.Fatalf("queued = %d, want 1 while first is active", got)
	}

	// Release the first handler; the second dispatches without a new Enqueue.
	h.release <- struct{}{}
	waitFor(t, func() bool { return h.startedCount() == 2 })

	close(h.release)
	q.Drain()
}
