// Package llm provides generative-text completion clients for the enrichment
// stage of the paper swipe service.
//
// Providers (OpenAI chat completions, Anthropic messages) implement the
// Completer interface. Transient API failures (429, 5xx, network) are retried
// by the providers themselves; callers only see the final outcome.
//
// Example usage:
//
//	completer, err := llm.NewCompleter(llm.FactoryConfig{Provider: "openai", OpenAI: cfg})
//	resp, err := completer.Complete(ctx, llm.Request{System: sys, Prompt: prompt})
package llm

import (
	"context"
	"errors"
)

// defaultMaxTokens covers a batch of five bilingual annotations.
const defaultMaxTokens = 4096

// Request is a single completion request.
type Request struct {
	// System is the system instruction (optional).
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int
}

// Response is the text produced by a provider plus accounting.
type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Completer generates text for a prompt.
type Completer interface {
	// Complete sends req and returns the model output. Transient failures
	// are retried internally; the returned error is the last one seen.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the name of the LLM provider (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// isTransientError checks whether an error is a transient API error eligible for retry.
func isTransientError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}
	return false
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
