package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobwatch/internal/model"
)

// DefaultAshbyBaseURL is the public Ashby job board API; overridable in
// config for tests.
const DefaultAshbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// Ensure AshbyAdapter implements model.SnapshotFetcher.
var _ model.SnapshotFetcher = (*AshbyAdapter)(nil)

// AshbyAdapter fetches the raw job board snapshot for one employer. The body
// is returned untouched; parsing and diffing happen downstream so the stored
// snapshot is exactly what the board served.
type AshbyAdapter struct {
	baseURL string
	boardID string
	client  *http.Client
}

// NewAshbyAdapter creates an adapter for the board identified by boardID.
func NewAshbyAdapter(baseURL, boardID string, client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{
		baseURL: baseURL,
		boardID: boardID,
		client:  client,
	}
}

// FetchSnapshot retrieves the board's current snapshot as raw text.
func (a *AshbyAdapter) FetchSnapshot(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/%s", a.baseURL, a.boardID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("board fetch for %s: %w", a.boardID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("board fetch for %s: %w", a.boardID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("board fetch for %s: unexpected status %d", a.boardID, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("board fetch for %s: read body: %w", a.boardID, err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", fmt.Errorf("board fetch for %s: empty response body", a.boardID)
	}

	return string(body), nil
}
