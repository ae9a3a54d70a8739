package llm

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
)

// NewProvider creates the provider named by config.LLM.DefaultProvider.
// A missing API key surfaces as a configuration error.
func NewProvider(ctx context.Context, config *common.Config, logger arbor.ILogger) (Provider, error) {
	switch ProviderType(strings.ToLower(config.LLM.DefaultProvider)) {
	case "", ProviderClaude:
		provider, err := NewClaudeProvider(&config.Claude, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case ProviderGemini:
		provider, err := NewGeminiProvider(ctx, &config.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, common.NewConfigurationError("unsupported LLM provider: %s", config.LLM.DefaultProvider)
	}
}

// NewExtractor builds the provider from config and wraps it in an EventExtractor
func NewExtractor(ctx context.Context, config *common.Config, logger arbor.ILogger) (*EventExtractor, error) {
	provider, err := NewProvider(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	return NewEventExtractor(provider, &config.LLM, logger), nil
}
