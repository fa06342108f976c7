package queue

import (
	"context"
	"log/slog"
	"sync"

	"jobwatch/internal/model"
)

// Handler processes one admitted work item. Process runs on a queue-owned
// goroutine and must not panic; the queue treats return as completion. The
// context is the queue's base context and is cancelled on daemon shutdown.
type Handler interface {
	Process(ctx context.Context, item model.WorkItem)
}

// Status is a point-in-time view of the queue, used for periodic logging.
type Status struct {
	Queued        int
	Active        int
	Capacity      int
	MaxConcurrent int
}

// Queue is a bounded FIFO of work items with a cap on concurrent handlers.
// Enqueue never blocks: when the backlog is full the item is rejected and
// the caller decides what to do with it.
type Queue struct {
	ctx           context.Context
	capacity      int
	maxConcurrent int
	handler       Handler
	logger        *slog.Logger

	mu     sync.Mutex
	items  []model.WorkItem
	active int
	wg     sync.WaitGroup
}

// New creates a queue dispatching to handler. ctx is passed through to every
// Process call so in-flight work observes daemon shutdown.
func New(ctx context.Context, capacity, maxConcurrent int, handler Handler, logger *slog.Logger) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Queue{
		ctx:           ctx,
		capacity:      capacity,
		maxConcurrent: maxConcurrent,
		handler:       handler,
		logger:        logger,
	}
}

// Enqueue admits item to the backlog, or rejects it when the backlog is at
// capacity. Returns false on rejection.
func (q *Queue) Enqueue(item model.WorkItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		q.logger.Warn("queue full, rejecting work item",
			"employer", item.Employer.Name,
			"postings", len(item.Postings),
			"capacity", q.capacity)
		return false
	}

	q.items = append(q.items, item)
	q.logger.Debug("work item queued",
		"employer", item.Employer.Name,
		"postings", len(item.Postings),
		"queued", len(q.items))
	q.dispatchLocked()
	return true
}

// dispatchLocked starts handlers for queued items while concurrency allows.
// Caller must hold q.mu.
func (q *Queue) dispatchLocked() {
	for q.active < q.maxConcurrent && len(q.items) > 0 {
		item := q.items[0]
		q.items = q.items[1:]
		q.active++
		q.wg.Add(1)
		go q.run(item)
	}
}

func (q *Queue) run(item model.WorkItem) {
	defer q.wg.Done()
	q.handler.Process(q.ctx, item)
	q.OnCompletion(item.Employer.Name)
}

// OnCompletion releases one concurrency slot and dispatches the next queued
// item, if any.
func (q *Queue) OnCompletion(employer string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.active--
	q.logger.Debug("work item completed",
		"employer", employer,
		"queued", len(q.items),
		"active", q.active)
	q.dispatchLocked()
}

// Status reports the current backlog and in-flight counts.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{
		Queued:        len(q.items),
		Active:        q.active,
		Capacity:      q.capacity,
		MaxConcurrent: q.maxConcurrent,
	}
}

// Drain blocks until the backlog is empty and every handler has returned.
// Completion dispatches the next queued item before releasing its slot, so
// the wait covers queued items too.
func (q *Queue) Drain() {
	q.wg.Wait()
}
