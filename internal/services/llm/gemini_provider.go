package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"google.golang.org/genai"
)

// GeminiProvider generates content with the Google Gemini API
type GeminiProvider struct {
	config  *common.GeminiConfig
	client  *genai.Client
	timeout time.Duration
	logger  arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider. The API key is resolved from
// GEMINI_API_KEY / GOOGLE_API_KEY / SMARTCRAWL_GEMINI_API_KEY first, then gemini.api_key.
func NewGeminiProvider(ctx context.Context, geminiConfig *common.GeminiConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize Gemini service: %w", err)
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p := &GeminiProvider{
		config:  geminiConfig,
		client:  client,
		timeout: common.ParseDuration(geminiConfig.Timeout, 2*time.Minute),
		logger:  logger,
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", p.timeout).
		Msg("Gemini provider initialized")

	return p, nil
}

func (p *GeminiProvider) GetProviderType() ProviderType {
	return ProviderGemini
}

func (p *GeminiProvider) Close() error {
	return nil
}

// GenerateContent sends a single user turn and returns the response text
func (p *GeminiProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	model := request.Model
	if model == "" {
		model = p.config.Model
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(request.Temperature),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}
	if request.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromText(request.Prompt, genai.RoleUser),
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := p.client.Models.GenerateContent(timeoutCtx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, fmt.Errorf("empty text in Gemini response")
	}

	p.logger.Debug().
		Str("model", model).
		Int("response_length", len(responseText)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini completion finished")

	return &ContentResponse{
		Text:     responseText,
		Provider: ProviderGemini,
		Model:    model,
	}, nil
}
