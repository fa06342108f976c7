package ai

import (
	"context"

	"jobwatch/internal/model"
)

// NopAnalyzer is used when analysis is disabled. Every posting passes
// through as a match so notifications still fire for all new postings.
type NopAnalyzer struct{}

var _ model.MatchAnalyzer = (*NopAnalyzer)(nil)

func NewNopAnalyzer() *NopAnalyzer {
	return &NopAnalyzer{}
}

func (n *NopAnalyzer) Analyze(_ context.Context, _ string, postings []model.Posting) []model.MatchResult {
	out := make([]model.MatchResult, 0, len(postings))
	for _, p := range postings {
		out = append(out, model.MatchResult{
			Posting:   p,
			Score:     0,
			Rationale: "analysis disabled",
			IsMatch:   true,
		})
	}
	return out
}
