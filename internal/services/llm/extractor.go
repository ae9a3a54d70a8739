package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/models"
)

const (
	// ErrMsgInvalidJSON is recorded when the model reply is not a JSON object
	ErrMsgInvalidJSON = "Invalid JSON response from model"
)

// errNoJSON is returned by decodeReply when the reply carries no JSON object
var errNoJSON = errors.New("no JSON object in reply")

// EventExtractor extracts structured event data through an LLM provider
type EventExtractor struct {
	provider    Provider
	temperature float32
	maxTokens   int
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewEventExtractor creates an extractor using provider with the [llm] settings of config
func NewEventExtractor(provider Provider, llmConfig *common.LLMConfig, logger arbor.ILogger) *EventExtractor {
	e := &EventExtractor{
		provider:    provider,
		temperature: 0.1,
		maxTokens:   2000,
		validate:    validator.New(),
		logger:      logger,
	}
	if llmConfig != nil {
		if llmConfig.Temperature > 0 {
			e.temperature = llmConfig.Temperature
		}
		if llmConfig.MaxTokens > 0 {
			e.maxTokens = llmConfig.MaxTokens
		}
	}
	return e
}

// ExtractEventInfo asks the model for the events on one page.
// The whole page is sent. Provider failures and unusable replies become
// negative results, never errors.
func (e *EventExtractor) ExtractEventInfo(ctx context.Context, content, sourceURL string) (*models.ExtractionResult, error) {
	resp, err := e.provider.GenerateContent(ctx, &ContentRequest{
		Prompt:            BuildExtractionPrompt(content, sourceURL),
		SystemInstruction: extractionSystemInstruction,
		Temperature:       e.temperature,
		MaxTokens:         e.maxTokens,
		JSONResponse:      true,
	})
	if err != nil {
		e.logger.Warn().Str("source_url", sourceURL).Err(err).Msg("Event extraction call failed")
		return models.NewNegativeResult(sourceURL, fmt.Sprintf("LLM API error: %v", err), ""), nil
	}

	var result models.ExtractionResult
	if err := decodeReply(resp.Text, &result); err != nil {
		e.logger.Warn().Str("source_url", sourceURL).Err(err).Msg("Model reply is not valid JSON")
		return models.NewNegativeResult(sourceURL, ErrMsgInvalidJSON, resp.Text), nil
	}

	if result.SourceURL == "" {
		result.SourceURL = sourceURL
	}
	if result.Events == nil {
		result.Events = []models.Event{}
	}

	if err := e.validateExtraction(&result); err != nil {
		e.logger.Warn().Str("source_url", sourceURL).Err(err).Msg("Model reply failed validation")
		return models.NewNegativeResult(result.SourceURL, fmt.Sprintf("invalid extraction result: %v", err), resp.Text), nil
	}

	return &result, nil
}

// NormalizeEvents asks the model to rewrite the events of result into canonical form.
// Unusable replies are reported through Success=false.
func (e *EventExtractor) NormalizeEvents(ctx context.Context, result *models.ExtractionResult) (*models.NormalizationResult, error) {
	if result == nil || !result.HasEvent || len(result.Events) == 0 {
		return &models.NormalizationResult{Success: true, NormalizedEvents: []models.NormalizedEvent{}}, nil
	}

	prompt, err := BuildNormalizationPrompt(result.Events)
	if err != nil {
		return nil, err
	}

	resp, err := e.provider.GenerateContent(ctx, &ContentRequest{
		Prompt:            prompt,
		SystemInstruction: extractionSystemInstruction,
		Temperature:       e.temperature,
		MaxTokens:         e.maxTokens,
		JSONResponse:      true,
	})
	if err != nil {
		return &models.NormalizationResult{
			Success:          false,
			NormalizedEvents: []models.NormalizedEvent{},
			Error:            fmt.Sprintf("LLM API error: %v", err),
		}, nil
	}

	var normalized models.NormalizationResult
	if err := decodeReply(resp.Text, &normalized); err != nil {
		return &models.NormalizationResult{
			Success:          false,
			NormalizedEvents: []models.NormalizedEvent{},
			Error:            ErrMsgInvalidJSON,
			RawResponse:      resp.Text,
		}, nil
	}

	for i := range normalized.NormalizedEvents {
		if normalized.NormalizedEvents[i].SourceURL == "" {
			normalized.NormalizedEvents[i].SourceURL = result.SourceURL
		}
	}

	if err := e.validate.Struct(&normalized); err != nil {
		return &models.NormalizationResult{
			Success:          false,
			NormalizedEvents: []models.NormalizedEvent{},
			Error:            fmt.Sprintf("invalid normalization result: %v", err),
			RawResponse:      resp.Text,
		}, nil
	}

	if normalized.NormalizedEvents == nil {
		normalized.NormalizedEvents = []models.NormalizedEvent{}
	}
	return &normalized, nil
}

// Close releases the underlying provider
func (e *EventExtractor) Close() error {
	return e.provider.Close()
}

func (e *EventExtractor) validateExtraction(result *models.ExtractionResult) error {
	if result.HasEvent && len(result.Events) == 0 {
		return fmt.Errorf("has_event is true but no events were returned")
	}
	return e.validate.Struct(result)
}

// decodeReply parses a JSON object from a model reply. Plain JSON, a fenced
// ```json block and JSON surrounded by prose are accepted.
func decodeReply(text string, v interface{}) error {
	candidate := strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	if fenced, ok := fencedBlock(candidate); ok {
		if err := json.Unmarshal([]byte(fenced), v); err == nil {
			return nil
		}
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return errNoJSON
	}
	return json.Unmarshal([]byte(candidate[start:end+1]), v)
}

// fencedBlock returns the body of the first ``` fenced block in text
func fencedBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	body := text[open+3:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:] // drop the language tag line
	}
	closeIdx := strings.Index(body, "```")
	if closeIdx < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:closeIdx]), true
}
