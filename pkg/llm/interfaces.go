// Package llm provides completion clients for the quoting pipeline.
package llm

import "context"

// CompletionClient is the interface for LLM completion calls.
// Use this interface for dependency injection to enable mocking in tests.
type CompletionClient interface {
	// GenerateJSON sends a prompt requiring a JSON-only reply and returns the
	// raw text payload. Callers parse and validate the payload themselves.
	GenerateJSON(ctx context.Context, systemMessage, prompt string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both providers implement CompletionClient at compile time.
var (
	_ CompletionClient = (*OpenAIClient)(nil)
	_ CompletionClient = (*AnthropicClient)(nil)
)
