package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// fakeProvider returns a canned reply and records the last request
type fakeProvider struct {
	reply   string
	err     error
	request *ContentRequest
	closed  bool
}

func (f *fakeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	f.request = request
	if f.err != nil {
		return nil, f.err
	}
	return &ContentResponse{Text: f.reply, Provider: "fake"}, nil
}

func (f *fakeProvider) GetProviderType() ProviderType { return "fake" }
func (f *fakeProvider) Close() error                  { f.closed = true; return nil }

const festivalReply = `{
  "has_event": true,
  "events": [{
    "title": "夏祭り",
    "start_date": "2024-08-10",
    "start_time": "18:00",
    "prefecture": "東京都",
    "fee_amount": 500,
    "fee_unit": "円",
    "contact_info": null
  }],
  "source_url": "https://example.jp/matsuri"
}`

func newTestExtractor(provider Provider) *EventExtractor {
	return NewEventExtractor(provider, &common.LLMConfig{Temperature: 0.1, MaxTokens: 2000}, arbor.NewNoOpLogger())
}

func TestExtractEventInfo_ParsesJSON(t *testing.T) {
	provider := &fakeProvider{reply: festivalReply}
	result, err := newTestExtractor(provider).ExtractEventInfo(context.Background(), "page text", "https://example.jp/matsuri")

	require.NoError(t, err)
	require.True(t, result.HasEvent)
	require.Len(t, result.Events, 1)
	event := result.Events[0]
	assert.Equal(t, models.Text("夏祭り"), event.Title)
	assert.Equal(t, models.Text("500"), event.FeeAmount, "numbers are accepted as text")
	assert.Equal(t, models.Text(""), event.ContactInfo)
	assert.Empty(t, result.Error)

	assert.Contains(t, provider.request.Prompt, "page text")
	assert.Contains(t, provider.request.Prompt, "https://example.jp/matsuri")
	assert.Equal(t, float32(0.1), provider.request.Temperature)
	assert.Equal(t, 2000, provider.request.MaxTokens)
	assert.True(t, provider.request.JSONResponse)
}

func TestExtractEventInfo_SendsWholeMultibytePage(t *testing.T) {
	provider := &fakeProvider{reply: festivalReply}
	page := strings.Repeat("祭", 20000) + "\n開催日: 2024年8月10日\n"

	_, err := newTestExtractor(provider).ExtractEventInfo(context.Background(), page, "https://example.jp/matsuri")
	require.NoError(t, err)

	prompt := provider.request.Prompt
	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, page)
	assert.Contains(t, prompt, "開催日: 2024年8月10日")
}

func TestEventExtractor_CloseClosesProvider(t *testing.T) {
	provider := &fakeProvider{}
	require.NoError(t, newTestExtractor(provider).Close())
	assert.True(t, provider.closed)
}

func TestExtractEventInfo_FencedReply(t *testing.T) {
	provider := &fakeProvider{reply: "Here you go:\n```json\n" + festivalReply + "\n```\n"}
	result, err := newTestExtractor(provider).ExtractEventInfo(context.Background(), "x", "https://example.jp/matsuri")

	require.NoError(t, err)
	assert.True(t, result.HasEvent)
}

func TestExtractEventInfo_NonJSONIsNegative(t *testing.T) {
	provider := &fakeProvider{reply: "Sorry, I cannot find anything useful here."}
	result, err := newTestExtractor(provider).ExtractEventInfo(context.Background(), "x", "https://example.com/a")

	require.NoError(t, err)
	assert.False(t, result.HasEvent)
	assert.Empty(t, result.Events)
	assert.Equal(t, ErrMsgInvalidJSON, result.Error)
	assert.Equal(t, "Sorry, I cannot find anything useful here.", result.RawResponse)
	assert.Equal(t, "https://example.com/a", result.SourceURL)
}

func TestExtractEventInfo_ProviderErrorIsNegative(t *testing.T) {
	provider := &fakeProvider{err: errors.New("429 rate limited")}
	result, err := newTestExtractor(provider).ExtractEventInfo(context.Background(), "x", "https://example.com/a")

	require.NoError(t, err)
	assert.False(t, result.HasEvent)
	assert.Contains(t, result.Error, "LLM API error: 429 rate limited")
	assert.Empty(t, result.RawResponse)
}

func TestExtractEventInfo_InvalidEventIsNegative(t *testing.T) {
	tests := map[string]string{
		"missing title":          `{"has_event": true, "events": [{"start_date": "2024-08-10"}]}`,
		"bad date":               `{"has_event": true, "events": [{"title": "x", "start_date": "August 10"}]}`,
		"affirmative, no events": `{"has_event": true, "events": []}`,
	}

	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := newTestExtractor(&fakeProvider{reply: reply}).ExtractEventInfo(context.Background(), "x", "https://example.com")

			require.NoError(t, err)
			assert.False(t, result.HasEvent)
			assert.Contains(t, result.Error, "invalid extraction result")
			assert.Equal(t, reply, result.RawResponse)
		})
	}
}

func TestExtractEventInfo_NegativeReply(t *testing.T) {
	reply := `{"has_event": false, "events": []}`
	result, err := newTestExtractor(&fakeProvider{reply: reply}).ExtractEventInfo(context.Background(), "x", "https://example.com")

	require.NoError(t, err)
	assert.False(t, result.HasEvent)
	assert.Empty(t, result.Error)
	assert.Equal(t, "https://example.com", result.SourceURL)
}

func TestExtractionResult_JSONPreservesNonASCIIAndNulls(t *testing.T) {
	result, err := newTestExtractor(&fakeProvider{reply: festivalReply}).ExtractEventInfo(context.Background(), "x", "")
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"夏祭り"`)
	assert.Contains(t, string(data), `"contact_info":null`)
	assert.NotContains(t, string(data), `"error"`)
}

func TestNormalizeEvents(t *testing.T) {
	input := &models.ExtractionResult{
		HasEvent:  true,
		Events:    []models.Event{{Title: "夏祭り"}},
		SourceURL: "https://example.jp/matsuri",
	}

	provider := &fakeProvider{reply: `{"success": true, "normalized_events": [{"title": "夏祭り", "fee_amount": "0", "data_quality_score": 0.4}]}`}
	normalized, err := newTestExtractor(provider).NormalizeEvents(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, normalized.Success)
	require.Len(t, normalized.NormalizedEvents, 1)
	assert.Equal(t, "https://example.jp/matsuri", normalized.NormalizedEvents[0].SourceURL)
	assert.Equal(t, 0.4, normalized.NormalizedEvents[0].DataQualityScore)
	assert.Contains(t, provider.request.Prompt, "夏祭り")

	provider.reply = `{"success": true, "normalized_events": [{"title": "x", "data_quality_score": 7}]}`
	normalized, err = newTestExtractor(provider).NormalizeEvents(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, normalized.Success)
	assert.Contains(t, normalized.Error, "invalid normalization result")

	provider.reply = "not json"
	normalized, err = newTestExtractor(provider).NormalizeEvents(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, normalized.Success)
	assert.Equal(t, "not json", normalized.RawResponse)
}

func TestNormalizeEvents_NothingToNormalize(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	normalized, err := newTestExtractor(provider).NormalizeEvents(context.Background(), &models.ExtractionResult{HasEvent: false})

	require.NoError(t, err)
	assert.True(t, normalized.Success)
	assert.Empty(t, normalized.NormalizedEvents)
	assert.Nil(t, provider.request, "provider is not called")
}

func TestNewProvider_RequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("SMARTCRAWL_CLAUDE_API_KEY", "")

	config := common.NewDefaultConfig()
	_, err := NewProvider(context.Background(), config, arbor.NewNoOpLogger())
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.Contains(t, err.Error(), "Failed to initialize Claude service")

	config.LLM.DefaultProvider = "mystery"
	_, err = NewProvider(context.Background(), config, arbor.NewNoOpLogger())
	assert.ErrorIs(t, err, common.ErrConfiguration)

	config.LLM.DefaultProvider = "claude"
	config.Claude.APIKey = "sk-test"
	provider, err := NewProvider(context.Background(), config, arbor.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, provider.GetProviderType())
}
