package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewCompletionClient creates a completion client for the configured
// provider. An empty provider defaults to OpenAI.
func NewCompletionClient(cfg *Config, logger *zap.Logger) (CompletionClient, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
