package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"jobwatch/internal/model"
	"jobwatch/internal/poller"
	"jobwatch/internal/queue"
)

// PollerFactory builds a wired poller for one discovered employer.
type PollerFactory func(model.Employer) *poller.EmployerPoller

// StatusReporter exposes the work queue's state for periodic logging.
type StatusReporter interface {
	Status() queue.Status
}

// Scheduler owns the daemon's timers: the poll interval that runs every
// employer's poller, the longer discovery interval that re-reads the
// employer list from the store, and periodic queue status logging. Employers
// added while the daemon runs are picked up at the next discovery tick.
type Scheduler struct {
	store             model.SnapshotStore
	buildPoller       PollerFactory
	pollInterval      time.Duration
	discoveryInterval time.Duration
	statusInterval    time.Duration
	queue             StatusReporter
	logger            *slog.Logger

	pollers []*poller.EmployerPoller
}

// NewScheduler creates a scheduler. Pollers are not built until the first
// discovery pass inside Run.
func NewScheduler(
	store model.SnapshotStore,
	buildPoller PollerFactory,
	pollInterval, discoveryInterval time.Duration,
	q StatusReporter,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		store:             store,
		buildPoller:       buildPoller,
		pollInterval:      pollInterval,
		discoveryInterval: discoveryInterval,
		statusInterval:    time.Minute,
		queue:             q,
		logger:            logger,
	}
}

// Run starts the scheduling loop. It discovers employers immediately, polls
// them, then ticks. Returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"poll_interval", s.pollInterval.String(),
		"discovery_interval", s.discoveryInterval.String(),
	)

	s.discover()
	if len(s.pollers) > 0 {
		s.pollAll(ctx)
	}

	pollTick := time.NewTicker(s.pollInterval)
	defer pollTick.Stop()
	discoveryTick := time.NewTicker(s.discoveryInterval)
	defer discoveryTick.Stop()
	statusTick := time.NewTicker(s.statusInterval)
	defer statusTick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-pollTick.C:
			s.pollAll(ctx)
		case <-discoveryTick.C:
			hadNone := len(s.pollers) == 0
			s.discover()
			// The first employers to appear should not wait out a full
			// poll interval.
			if hadNone && len(s.pollers) > 0 {
				s.pollAll(ctx)
			}
		case <-statusTick.C:
			st := s.queue.Status()
			s.logger.Info("queue status",
				"queued", st.Queued,
				"active", st.Active,
				"capacity", st.Capacity,
				"max_concurrent", st.MaxConcurrent,
			)
		}
	}
}

// discover re-reads the employer list and rebuilds the poller set.
func (s *Scheduler) discover() {
	employers, err := s.store.ListEmployers()
	if err != nil {
		s.logger.Error("employer discovery failed", "error", err)
		return
	}

	pollers := make([]*poller.EmployerPoller, 0, len(employers))
	for _, e := range employers {
		pollers = append(pollers, s.buildPoller(e))
	}
	s.pollers = pollers

	s.logger.Info("discovered employers", "count", len(employers))
}

// pollAll polls every employer concurrently and waits for the cycle to
// finish before the next tick is considered.
func (s *Scheduler) pollAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range s.pollers {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(p *poller.EmployerPoller) {
			defer wg.Done()
			if err := p.Poll(ctx); err != nil {
				s.logger.Error("poll failed",
					"employer", p.Employer.Name,
					"error", err,
				)
			}
		}(p)
	}
	wg.Wait()
}
