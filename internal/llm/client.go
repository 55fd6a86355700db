// Package llm wraps the text-generation API behind a small Client interface
// so the orchestrator can be tested against a scripted implementation.
package llm

import "context"

// Request carries one generation call's prompt and sampling parameters.
type Request struct {
	Prompt           string
	SystemPrompt     string
	MaxTokens        int
	Temperature      float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Client is the generation API surface. Implementations block until the
// provider responds or the context is done.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
