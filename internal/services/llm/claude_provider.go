package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
)

// ClaudeProvider generates content with the Anthropic Messages API
type ClaudeProvider struct {
	config  *common.ClaudeConfig
	client  anthropic.Client
	timeout time.Duration
	logger  arbor.ILogger
}

// NewClaudeProvider creates a Claude provider. The API key is resolved from
// ANTHROPIC_API_KEY / SMARTCRAWL_CLAUDE_API_KEY first, then claude.api_key.
func NewClaudeProvider(claudeConfig *common.ClaudeConfig, logger arbor.ILogger, opts ...option.RequestOption) (*ClaudeProvider, error) {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize Claude service: %w", err)
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-3-haiku-20240307"
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	p := &ClaudeProvider{
		config:  claudeConfig,
		client:  anthropic.NewClient(clientOpts...),
		timeout: common.ParseDuration(claudeConfig.Timeout, 2*time.Minute),
		logger:  logger,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", p.timeout).
		Msg("Claude provider initialized")

	return p, nil
}

func (p *ClaudeProvider) GetProviderType() ProviderType {
	return ProviderClaude
}

func (p *ClaudeProvider) Close() error {
	return nil
}

// GenerateContent sends a single user message and returns the concatenated text blocks
func (p *ClaudeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	model := request.Model
	if model == "" {
		model = p.config.Model
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}
	if request.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(request.Temperature))
	}
	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := p.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	p.logger.Debug().
		Str("model", model).
		Int("response_length", text.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude completion finished")

	return &ContentResponse{
		Text:     text.String(),
		Provider: ProviderClaude,
		Model:    model,
	}, nil
}
