package poller

import (
	"context"
	"fmt"
	"log/slog"

	"jobwatch/internal/model"
	"jobwatch/internal/snapshot"
)

// Enqueuer admits a work item to the analysis queue. Enqueue returns false
// when the queue is full.
type Enqueuer interface {
	Enqueue(item model.WorkItem) bool
}

// EmployerPoller owns the poll pipeline for a single employer:
// fetch → diff against stored snapshot → commit → enqueue new postings.
type EmployerPoller struct {
	Employer model.Employer
	fetcher  model.SnapshotFetcher
	store    model.SnapshotStore
	queue    Enqueuer
	logger   *slog.Logger
}

// NewEmployerPoller creates a poller wired with all its dependencies.
func NewEmployerPoller(
	employer model.Employer,
	fetcher model.SnapshotFetcher,
	store model.SnapshotStore,
	queue Enqueuer,
	logger *slog.Logger,
) *EmployerPoller {
	return &EmployerPoller{
		Employer: employer,
		fetcher:  fetcher,
		store:    store,
		queue:    queue,
		logger:   logger,
	}
}

// Poll runs one poll cycle. The stored snapshot is read before it is
// overwritten, and is only overwritten once the fresh body has passed the
// integrity check inside Diff; a malformed fetch leaves the stored row
// untouched.
func (p *EmployerPoller) Poll(ctx context.Context) error {
	name := p.Employer.Name

	raw, err := p.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("polling %s: %w", name, err)
	}

	if snapshot.Short(raw) {
		p.logger.Warn("snapshot suspiciously short",
			"employer", name,
			"bytes", len(raw))
	}

	old, found, err := p.store.GetSnapshot(name)
	if err != nil {
		return fmt.Errorf("polling %s: reading stored snapshot: %w", name, err)
	}

	newPostings, err := snapshot.Diff(old, raw)
	if err != nil {
		return fmt.Errorf("polling %s: %w", name, err)
	}

	if err := p.store.UpsertSnapshot(name, p.Employer.ExternalID, raw); err != nil {
		return fmt.Errorf("polling %s: storing snapshot: %w", name, err)
	}

	if len(newPostings) > 0 {
		item := model.WorkItem{Employer: p.Employer, Postings: newPostings}
		if !p.queue.Enqueue(item) {
			// Snapshot is already committed; these postings will not
			// reappear as new on the next cycle.
			p.logger.Error("work queue full, postings dropped",
				"employer", name,
				"postings", len(newPostings))
		}
	}

	p.logger.Info("polled employer",
		"employer", name,
		"had_snapshot", found,
		"new", len(newPostings),
	)

	return nil
}
