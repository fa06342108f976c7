package poller

import (
	"context"
	"testing"

	"jobwatch/internal/model"
)

// scriptedAnalyzer maps posting id to a canned verdict.
type scriptedAnalyzer struct {
	matches map[string]bool
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, _ string, postings []model.Posting) []model.MatchResult {
	out := make([]model.MatchResult, 0, len(postings))
	for _, p := range postings {
		out = append(out, model.MatchResult{
			Posting: p,
			Score:   80,
			IsMatch: a.matches[p.ID],
		})
	}
	return out
}

// scriptedNotifier fails delivery for ids in failIDs.
type scriptedNotifier struct {
	notified []string
	failIDs  map[string]bool
}

func (n *scriptedNotifier) NotifyMatch(res model.MatchResult) model.DeliveryReceipt {
	n.notified = append(n.notified, res.Posting.ID)
	if n.failIDs[res.Posting.ID] {
		return model.DeliveryReceipt{Posting: res.Posting, Err: "delivery failed"}
	}
	return model.DeliveryReceipt{Posting: res.Posting, Success: true, MessageID: "ts-" + res.Posting.ID}
}

func workItem(ids ...string) model.WorkItem {
	postings := make([]model.Posting, len(ids))
	for i, id := range ids {
		postings[i] = model.Posting{ID: id, Title: "Engineer", IsListed: true}
	}
	return model.WorkItem{
		Employer: model.Employer{Name: "acme", ExternalID: "acme-board"},
		Postings: postings,
	}
}

func TestProcess_NotifiesOnlyMatches(t *testing.T) {
	analyzer := &scriptedAnalyzer{matches: map[string]bool{"1": true, "3": true}}
	notifier := &scriptedNotifier{}
	h := NewMatchHandler(analyzer, notifier, discardLogger())

	h.Process(context.Background(), workItem("1", "2", "3"))

	if len(notifier.notified) != 2 {
		t.Fatalf("notified = %v, want ids 1 and 3", notifier.notified)
	}
	if notifier.notified[0] != "1" || notifier.notified[1] != "3" {
		t.Errorf("notified = %v, want [1 3]", notifier.notified)
	}
}

func TestProcess_DeliveryFailureDoesNotAbortBatch(t *testing.T) {
	analyzer := &scriptedAnalyzer{matches: map[string]bool{"1": true, "2": true, "3": true}}
	notifier := &scriptedNotifier{failIDs: map[string]bool{"2": true}}
	h := NewMatchHandler(analyzer, notifier, discardLogger())

	h.Process(context.Background(), workItem("1", "2", "3"))

	// All three attempts happen even though the middle one fails.
	if len(notifier.notified) != 3 {
		t.Errorf("notified = %v, want all three attempted", notifier.notified)
	}
}

func TestProcess_NoMatchesNoNotifications(t *testing.T) {
	analyzer := &scriptedAnalyzer{matches: map[string]bool{}}
	notifier := &scriptedNotifier{}
	h := NewMatchHandler(analyzer, notifier, discardLogger())

	h.Process(context.Background(), workItem("1", "2"))

	if len(notifier.notified) != 0 {
		t.Errorf("notified = %v, want none", notifier.notified)
	}
}
