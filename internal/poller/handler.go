package poller

import (
	"context"
	"log/slog"

	"jobwatch/internal/model"
)

// MatchHandler processes one queued work item: score the postings, then
// notify each match. It implements queue.Handler. Individual delivery
// failures never abort the batch; the queue learns of completion only after
// every posting in the item has been handled.
type MatchHandler struct {
	analyzer model.MatchAnalyzer
	notifier model.Notifier
	logger   *slog.Logger
}

func NewMatchHandler(analyzer model.MatchAnalyzer, notifier model.Notifier, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		analyzer: analyzer,
		notifier: notifier,
		logger:   logger,
	}
}

// Process scores item's postings and sends one notification per match.
func (h *MatchHandler) Process(ctx context.Context, item model.WorkItem) {
	results := h.analyzer.Analyze(ctx, item.Employer.Name, item.Postings)

	var matches, delivered, failed int
	for _, res := range results {
		if !res.IsMatch {
			continue
		}
		matches++
		receipt := h.notifier.NotifyMatch(res)
		if receipt.Success {
			delivered++
		} else {
			failed++
			h.logger.Error("match notification failed",
				"employer", item.Employer.Name,
				"job_id", receipt.Posting.ID,
				"error", receipt.Err)
		}
	}

	h.logger.Info("work item processed",
		"employer", item.Employer.Name,
		"postings", len(item.Postings),
		"matches", matches,
		"delivered", delivered,
		"failed", failed,
	)
}
