package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"golang.org/x/time/rate"
)

const (
	// DefaultFirecrawlBaseURL is the public Firecrawl API endpoint
	DefaultFirecrawlBaseURL = "https://api.firecrawl.dev"

	// DefaultTimeout bounds a single scrape request
	DefaultTimeout = 30 * time.Second

	scrapePath = "/v1/scrape"

	// maxErrorBody caps how much of a failed response is kept in the error text
	maxErrorBody = 512
)

// scrapeRequest is the Firecrawl scrape payload
type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

// scrapeResponse is the subset of the Firecrawl scrape response we read
type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
}

// FirecrawlClient fetches page markdown through the Firecrawl scrape API
type FirecrawlClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// FirecrawlOption configures the FirecrawlClient
type FirecrawlOption func(*FirecrawlClient)

// WithBaseURL sets a custom API base URL
func WithBaseURL(baseURL string) FirecrawlOption {
	return func(c *FirecrawlClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) FirecrawlOption {
	return func(c *FirecrawlClient) {
		c.httpClient = httpClient
	}
}

// WithLimiter sets the request rate limiter
func WithLimiter(limiter *rate.Limiter) FirecrawlOption {
	return func(c *FirecrawlClient) {
		c.limiter = limiter
	}
}

// NewFirecrawlClient creates a client authenticated with apiKey
func NewFirecrawlClient(apiKey string, logger arbor.ILogger, opts ...FirecrawlOption) *FirecrawlClient {
	c := &FirecrawlClient{
		baseURL: DefaultFirecrawlBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: NewLimiter(0),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *FirecrawlClient) Name() string {
	return "firecrawl"
}

// Fetch scrapes url and returns its main content as markdown.
// Only HTTP 200 with success=true and non-empty markdown is a success.
func (c *FirecrawlClient) Fetch(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	payload, err := json.Marshal(scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scrapePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("url", url).Msg("Firecrawl scrape request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", common.NewExternalAPIError(err, "scrape request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", common.NewExternalAPIError(err, "failed to read scrape response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", common.NewExternalAPIError(nil, "HTTP %d: %s", resp.StatusCode, truncate(string(body), maxErrorBody))
	}

	var result scrapeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", common.NewExternalAPIError(err, "invalid scrape response")
	}

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return "", common.NewExternalAPIError(nil, "API returned error: %s", msg)
	}

	if result.Data == nil || result.Data.Markdown == "" {
		return "", common.NewExternalAPIError(nil, "No markdown content in response")
	}

	return result.Data.Markdown, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
