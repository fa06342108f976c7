package model

import (
	"context"
	"time"
)

// Employer identifies one monitored organization. The name keys the stored
// snapshot row; ExternalID is the board identifier used to build the fetch URL.
type Employer struct {
	Name       string
	ExternalID string
}

// Posting is one job listing as it appears in an employer's board snapshot.
// Identity is ID, unique within one employer's snapshot.
type Posting struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Department     string     `json:"department"`
	Team           string     `json:"team"`
	EmploymentType string     `json:"employmentType"`
	Location       string     `json:"location"`
	IsRemote       bool       `json:"isRemote"`
	IsListed       bool       `json:"isListed"`
	PublishedAt    *time.Time `json:"publishedAt"`
	JobURL         string     `json:"jobUrl"`
	ApplyURL       string     `json:"applyUrl"`
	Description    string     `json:"descriptionPlain"`
}

// WorkItem is one batch of newly discovered postings for a single employer,
// the unit admitted to the work queue.
type WorkItem struct {
	Employer Employer
	Postings []Posting
}

// MatchResult is the analyzer's verdict for one posting. IsMatch is true only
// when the scoring service flagged the posting AND Score cleared the
// configured threshold.
type MatchResult struct {
	Posting   Posting
	Score     float64 // 0-100
	Rationale string
	IsMatch   bool
}

// DeliveryReceipt reports one notification attempt for one matched posting.
type DeliveryReceipt struct {
	Posting   Posting
	Success   bool
	MessageID string // channel message id on success
	Err       string // error description on failure
}

// SnapshotFetcher retrieves the current raw board snapshot for one employer.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) (string, error)
}

// SnapshotStore persists exactly one raw snapshot per employer, keyed by
// employer name, with upsert semantics.
type SnapshotStore interface {
	// GetSnapshot returns the stored raw snapshot and whether a row exists.
	GetSnapshot(name string) (raw string, found bool, err error)
	// UpsertSnapshot inserts or overwrites the employer's snapshot row.
	UpsertSnapshot(name, externalID, raw string) error
	// ListEmployers returns every employer with a snapshot row.
	ListEmployers() ([]Employer, error)
}

// Notifier delivers one formatted message per matched posting. It never
// returns an error; failures are reported through the receipt.
type Notifier interface {
	NotifyMatch(res MatchResult) DeliveryReceipt
}

// MatchAnalyzer scores a batch of postings for one employer. Implementations
// must return exactly one MatchResult per input posting and never fail the
// whole batch.
type MatchAnalyzer interface {
	Analyze(ctx context.Context, employer string, postings []Posting) []MatchResult
}
