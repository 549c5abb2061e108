package llm

import "context"

// MockCompletionClient is a configurable mock for testing the quoting
// pipeline. Set GenerateJSONFunc to control behavior in tests.
type MockCompletionClient struct {
	// GenerateJSONFunc is called when GenerateJSON is invoked.
	// If nil, returns "{}" and nil error.
	GenerateJSONFunc func(ctx context.Context, systemMessage, prompt string, temperature float64) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// GenerateJSONCalls counts invocations for verification.
	GenerateJSONCalls int

	// Prompts records every prompt passed to GenerateJSON.
	Prompts []string
}

// NewMockCompletionClient creates a new mock with sensible defaults.
func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// GenerateJSON implements CompletionClient.
func (m *MockCompletionClient) GenerateJSON(ctx context.Context, systemMessage, prompt string, temperature float64) (string, error) {
	m.GenerateJSONCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, systemMessage, prompt, temperature)
	}
	return "{}", nil
}

// GetModel implements CompletionClient.
func (m *MockCompletionClient) GetModel() string {
	return m.Model
}

// GetEndpoint implements CompletionClient.
func (m *MockCompletionClient) GetEndpoint() string {
	return m.Endpoint
}

var _ CompletionClient = (*MockCompletionClient)(nil)
