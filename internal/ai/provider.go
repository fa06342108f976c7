package ai

import "context"

// LLMProvider sends a prompt to a chat model and returns the raw text of the
// first choice. Used only by BatchAnalyzer; not exported to the rest of the
// system.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
