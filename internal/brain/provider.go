// Package brain talks to the language model that proposes link placements.
package brain

import "context"

// Provider is a text-generation backend.
type Provider interface {
	Name() string

	// Available is false when the provider lacks credentials.
	Available() bool

	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is one single-turn prompt. MaxTokens 0 lets the provider choose.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response carries the generated text and why generation stopped.
type Response struct {
	Content    string
	Model      string
	StopReason string
}

// Truncated reports whether the model ran out of output tokens.
func (r Response) Truncated() bool {
	return r.StopReason == "max_tokens"
}
