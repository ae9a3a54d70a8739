package llm

import (
	"context"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
)

// ContentRequest represents a provider-agnostic single-turn generation request
type ContentRequest struct {
	Prompt            string
	SystemInstruction string
	Model             string // empty uses the provider's configured model
	Temperature       float32
	MaxTokens         int
	JSONResponse      bool // ask the provider for a JSON reply where supported
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	GetProviderType() ProviderType
	Close() error
}
