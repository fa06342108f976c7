// Package snapshot compares two raw board snapshots for one employer and
// extracts the postings that appeared between them. It performs no I/O.
package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobwatch/internal/model"
)

// Bodies shorter than this are suspicious for a full board listing but are
// still accepted if structurally sound; small boards exist.
const shortBodyThreshold = 1000

// listing is the board API response envelope.
type listing struct {
	Jobs []model.Posting `json:"jobs"`
}

// IntegrityError marks a new snapshot that must not be diffed or committed.
// The caller retries on the next cycle with the stored snapshot untouched.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "snapshot integrity: " + e.Reason
}

// CheckIntegrity rejects a freshly fetched snapshot that is empty, truncated,
/// or not well-formed JSON. Truncation is detected heuristically: a complete
// listing body ends with a closing structural token.
func CheckIntegrity(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &IntegrityError{Reason: "empty body"}
	}
	if !strings.HasSuffix(trimmed, "}") && !strings.HasSuffix(trimmed, "]") {
		return &IntegrityError{Reason: "body does not end with a closing token, likely truncated"}
	}
	if !json.Valid([]byte(trimmed)) {
		return &IntegrityError{Reason: "body is not well-formed JSON"}
	}
	return nil
}

// Short reports whether the body is implausibly small for a full listing.
// Callers log this as a warning; it is not grounds for rejection.
func Short(raw string) bool {
	return len(strings.TrimSpace(raw)) < shortBodyThreshold
}

// ParseListing strictly parses a snapshot body and returns its listed
// postings in snapshot order. Delisted postings are dropped.
func ParseListing(raw string) ([]model.Posting, error) {
	if err := CheckIntegrity(raw); err != nil {
		return nil, err
	}

	var resp listing
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &IntegrityError{Reason: fmt.Sprintf("decoding listing: %v", err)}
	}

	postings := make([]model.Posting, 0, len(resp.Jobs))
	for _, p := range resp.Jobs {
		if !p.IsListed {
			continue
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// oldIDSet parses a previously stored snapshot into the set of posting ids it
// contains. Two historical encodings are recognized: a bare posting array and
// the full response envelope. If neither parses, it returns nil — the caller
// treats every posting in the new snapshot as new. Failing open here is
// deliberate: failing closed would silently drop real postings forever.
// Delisted ids are kept; only the new side filters on isListed.
func oldIDSet(old string) map[string]struct{} {
	trimmed := strings.TrimSpace(old)
	if trimmed == "" {
		return nil
	}

	var postings []model.Posting
	if err := json.Unmarshal([]byte(trimmed), &postings); err != nil {
		var resp listing
		if err := json.Unmarshal([]byte(trimmed), &resp); err != nil || resp.Jobs == nil {
			return nil
		}
		postings = resp.Jobs
	}
	if len(postings) == 0 {
		return nil
	}

	ids := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		ids[p.ID] = struct{}{}
	}
	return ids
}

// Diff returns the listed postings present in raw but absent (by id) from
// old, in the order they appear in raw. An empty or unparseable old snapshot
// makes every listed posting new. A structurally bad raw snapshot returns an
// IntegrityError and no postings; the stored value must not be overwritten in
// that case.
func Diff(old, raw string) ([]model.Posting, error) {
	current, err := ParseListing(raw)
	if err != nil {
		return nil, err
	}

	existing := oldIDSet(old)
	if existing == nil {
		return current, nil
	}

	fresh := make([]model.Posting, 0, len(current))
	for _, p := range current {
		if _, seen := existing[p.ID]; !seen {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}
