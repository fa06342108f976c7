package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jobwatch/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// DefaultSlackAPIURL is the Slack Web API base; overridable for tests.
const DefaultSlackAPIURL = "https://slack.com/api"

// SlackNotifier posts one message per match to a Slack channel via the
// chat.postMessage Web API method, authenticated with a bot token.
type SlackNotifier struct {
	apiURL     string
	token      string
	channel    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier posting matches to the given channel.
func NewSlackNotifier(apiURL, token, channel string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		apiURL:     apiURL,
		token:      token,
		channel:    channel,
		httpClient: httpClient,
		logger:     logger,
	}
}

// postMessageRequest mirrors the chat.postMessage request body.
type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// postMessageResponse mirrors the relevant fields of the Slack response.
// ts identifies the posted message and doubles as the delivery receipt id.
type postMessageResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error,omitempty"`
}

// NotifyMatch delivers one match and reports the outcome in the receipt.
// It never returns an error; a failed delivery is a failed receipt.
func (s *SlackNotifier) NotifyMatch(res model.MatchResult) model.DeliveryReceipt {
	receipt := model.DeliveryReceipt{Posting: res.Posting}

	ts, err := s.postMessage(buildMatchMessage(res))
	if err != nil {
		s.logger.Error("slack notification failed",
			"job_id", res.Posting.ID,
			"title", res.Posting.Title,
			"error", err)
		receipt.Err = err.Error()
		return receipt
	}

	s.logger.Info("slack message sent",
		"job_id", res.Posting.ID,
		"title", res.Posting.Title,
		"ts", ts)
	receipt.Success = true
	receipt.MessageID = ts
	return receipt
}

func (s *SlackNotifier) postMessage(text string) (string, error) {
	body, err := json.Marshal(postMessageRequest{Channel: s.channel, Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("slack returned HTTP %d", resp.StatusCode)
	}

	var pmResp postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pmResp); err != nil {
		return "", fmt.Errorf("decode slack response: %w", err)
	}
	if !pmResp.OK {
		return "", fmt.Errorf("slack error: %s", pmResp.Error)
	}
	return pmResp.TS, nil
}

// SendTestMatch pushes a synthetic match through n to verify the delivery
// path end to end.
func SendTestMatch(n model.Notifier) model.DeliveryReceipt {
	now := time.Now()
	return n.NotifyMatch(model.MatchResult{
		Posting: model.Posting{
			ID:             "test-001",
			Title:          "Test Notification — Integration Verified",
			Department:     "Engineering",
			Location:       "Everywhere",
			EmploymentType: "FullTime",
			IsRemote:       true,
			PublishedAt:    &now,
			JobURL:         "https://jobs.ashbyhq.com",
		},
		Score:     100,
		Rationale: "This is a test notification confirming the notifier is wired up correctly.",
		IsMatch:   true,
	})
}

// buildMatchMessage formats one match as Slack mrkdwn.
func buildMatchMessage(res model.MatchResult) string {
	p := res.Posting

	var b strings.Builder
	b.WriteString(":dart: *New Job Match Found!*\n\n")
	fmt.Fprintf(&b, "*Job Title:* %s\n", p.Title)
	fmt.Fprintf(&b, "*Department:* %s\n", p.Department)
	fmt.Fprintf(&b, "*Team:* %s\n", p.Team)
	fmt.Fprintf(&b, "*Location:* %s\n", p.Location)
	fmt.Fprintf(&b, "*Employment Type:* %s\n", p.EmploymentType)
	if p.IsRemote {
		b.WriteString("*Remote:* Yes\n")
	} else {
		b.WriteString("*Remote:* No\n")
	}
	published := "Unknown"
	if p.PublishedAt != nil {
		published = p.PublishedAt.Format("2006-01-02")
	}
	fmt.Fprintf(&b, "*Published:* %s\n", published)
	fmt.Fprintf(&b, "*Match Score:* %.1f%%\n\n", res.Score)
	fmt.Fprintf(&b, "*Why This is a Good Match:*\n%s\n\n", res.Rationale)
	if p.JobURL != "" {
		fmt.Fprintf(&b, "*Job URL:* %s\n", p.JobURL)
	}
	if p.ApplyURL != "" {
		fmt.Fprintf(&b, "*Apply URL:* %s\n", p.ApplyURL)
	}
	return b.String()
}
