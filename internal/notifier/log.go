package notifier

import (
	"log/slog"

	"jobwatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes match notifications to the given logger. Used when no
// Slack credentials are configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each match via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyMatch logs the match. Logging does not fail, so the receipt always
// reports success.
func (n *LogNotifier) NotifyMatch(res model.MatchResult) model.DeliveryReceipt {
	n.logger.Info("job match",
		"job_id", res.Posting.ID,
		"title", res.Posting.Title,
		"location", res.Posting.Location,
		"score", res.Score,
		"reason", res.Rationale,
		"url", res.Posting.JobURL)
	return model.DeliveryReceipt{Posting: res.Posting, Success: true}
}
