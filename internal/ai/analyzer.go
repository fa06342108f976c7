package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"jobwatch/internal/jsonrepair"
	"jobwatch/internal/model"
)

// Chunk boundaries for one provider call. Small boards go out whole; larger
// ones are split so a single slow completion cannot time out the batch.
const (
	smallBatchLimit  = 20
	mediumBatchLimit = 50
	mediumChunkSize  = 25
	largeChunkSize   = 20
)

// BatchAnalyzer implements model.MatchAnalyzer against an LLM provider. It
// always returns exactly one result per input posting: postings the model
// skipped, and whole chunks whose responses cannot be salvaged, get a
// non-matching fallback result instead of failing the batch.
type BatchAnalyzer struct {
	provider   LLMProvider
	tmpl       *template.Template
	profile    string
	threshold  float64
	chunkDelay time.Duration
	logger     *slog.Logger
}

var _ model.MatchAnalyzer = (*BatchAnalyzer)(nil)

// NewBatchAnalyzer creates an analyzer scoring postings against the given
// candidate profile text.
func NewBatchAnalyzer(provider LLMProvider, tmpl *template.Template, profile string, threshold float64, chunkDelay time.Duration, logger *slog.Logger) *BatchAnalyzer {
	return &BatchAnalyzer{
		provider:   provider,
		tmpl:       tmpl,
		profile:    profile,
		threshold:  threshold,
		chunkDelay: chunkDelay,
		logger:     logger,
	}
}

// Analyze scores postings in chunks with a pause between provider calls.
func (a *BatchAnalyzer) Analyze(ctx context.Context, employer string, postings []model.Posting) []model.MatchResult {
	if len(postings) == 0 {
		return nil
	}

	size := chunkSize(len(postings))
	a.logger.Info("analyzing postings",
		"employer", employer,
		"postings", len(postings),
		"chunk_size", size)

	results := make([]model.MatchResult, 0, len(postings))
	for start := 0; start < len(postings); start += size {
		end := start + size
		if end > len(postings) {
			end = len(postings)
		}
		results = append(results, a.analyzeChunk(ctx, employer, postings[start:end])...)

		if end < len(postings) {
			select {
			case <-ctx.Done():
				a.logger.Warn("analysis cancelled mid-batch",
					"employer", employer,
					"remaining", len(postings)-end)
				return append(results, fallbackResults(postings[end:], "analysis cancelled")...)
			case <-time.After(a.chunkDelay):
			}
		}
	}
	return results
}

// chunkSize picks the per-call posting count for a board of n postings.
func chunkSize(n int) int {
	switch {
	case n <= smallBatchLimit:
		return n
	case n <= mediumBatchLimit:
		return mediumChunkSize
	default:
		return largeChunkSize
	}
}

func (a *BatchAnalyzer) analyzeChunk(ctx context.Context, employer string, postings []model.Posting) []model.MatchResult {
	prompt, err := a.buildPrompt(employer, postings)
	if err != nil {
		a.logger.Error("render analysis prompt failed",
			"employer", employer, "error", err)
		return fallbackResults(postings, "analysis failed")
	}

	raw, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		a.logger.Error("llm completion failed",
			"employer", employer,
			"postings", len(postings),
			"error", err)
		return fallbackResults(postings, "analysis failed")
	}

	verdicts, err := parseVerdicts(raw)
	if err != nil {
		a.logger.Error("llm response unusable after repair",
			"employer", employer, "error", err)
		return fallbackResults(postings, "analysis failed")
	}

	results := make([]model.MatchResult, 0, len(postings))
	for _, p := range postings {
		v, ok := verdicts[p.ID]
		if !ok {
			a.logger.Warn("posting missing from llm response",
				"employer", employer, "job_id", p.ID)
			results = append(results, fallbackResult(p, "missing from analysis response"))
			continue
		}
		results = append(results, model.MatchResult{
			Posting:   p,
			Score:     v.Score,
			Rationale: v.WhyGoodMatch,
			IsMatch:   v.IsMatch && v.Score >= a.threshold,
		})
	}
	return results
}

// promptJob is one sanitized posting as rendered into the prompt.
type promptJob struct {
	Index          int
	ID             string
	Title          string
	Department     string
	Team           string
	EmploymentType string
	Location       string
	Remote         string
	PublishedAt    string
	Description    string
}

func (a *BatchAnalyzer) buildPrompt(employer string, postings []model.Posting) (string, error) {
	jobs := make([]promptJob, 0, len(postings))
	for i, p := range postings {
		remote := "No"
		if p.IsRemote {
			remote = "Yes"
		}
		published := "Unknown"
		if p.PublishedAt != nil {
			published = p.PublishedAt.Format("2006-01-02")
		}
		jobs = append(jobs, promptJob{
			Index:          i + 1,
			ID:             p.ID,
			Title:          sanitizeField(p.Title),
			Department:     sanitizeField(p.Department),
			Team:           sanitizeField(p.Team),
			EmploymentType: sanitizeField(p.EmploymentType),
			Location:       sanitizeField(p.Location),
			Remote:         remote,
			PublishedAt:    published,
			Description:    sanitizeDescription(p.Description),
		})
	}

	var buf bytes.Buffer
	err := a.tmpl.Execute(&buf, struct {
		Profile   string
		Employer  string
		Threshold float64
		Jobs      []promptJob
	}{
		Profile:   a.profile,
		Employer:  employer,
		Threshold: a.threshold,
		Jobs:      jobs,
	})
	if err != nil {
		return "", fmt.Errorf("execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// rawVerdict is one entry of the model's "jobs" array.
type rawVerdict struct {
	JobID        string  `json:"jobId"`
	Score        float64 `json:"score"`
	WhyGoodMatch string  `json:"whyGoodMatch"`
	IsMatch      bool    `json:"isMatch"`
}

type verdictEnvelope struct {
	Jobs []rawVerdict `json:"jobs"`
}

// decodeVerdicts accepts either the prompted envelope {"jobs":[...]} or a
// bare verdict array, which some models return despite the schema.
func decodeVerdicts(s string) ([]rawVerdict, error) {
	var env verdictEnvelope
	if err := json.Unmarshal([]byte(s), &env); err == nil && env.Jobs != nil {
		return env.Jobs, nil
	}
	var list []rawVerdict
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// parseVerdicts decodes the model output, falling back to extraction and
// structural repair when the content is not clean JSON.
func parseVerdicts(raw string) (map[string]rawVerdict, error) {
	list, err := decodeVerdicts(raw)
	if err != nil {
		extracted := jsonrepair.Extract(raw)
		if extracted == "" {
			return nil, fmt.Errorf("no JSON found in response")
		}
		repaired, ok := jsonrepair.Repair(extracted)
		if !ok {
			return nil, fmt.Errorf("response not repairable")
		}
		list, err = decodeVerdicts(repaired)
		if err != nil {
			return nil, fmt.Errorf("unmarshal repaired response: %w", err)
		}
	}

	verdicts := make(map[string]rawVerdict, len(list))
	for _, v := range list {
		verdicts[v.JobID] = v
	}
	return verdicts, nil
}

func fallbackResult(p model.Posting, reason string) model.MatchResult {
	return model.MatchResult{
		Posting:   p,
		Score:     0,
		Rationale: reason,
		IsMatch:   false,
	}
}

func fallbackResults(postings []model.Posting, reason string) []model.MatchResult {
	out := make([]model.MatchResult, 0, len(postings))
	for _, p := range postings {
		out = append(out, fallbackResult(p, reason))
	}
	return out
}
