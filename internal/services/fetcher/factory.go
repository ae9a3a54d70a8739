package fetcher

import (
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	ProviderFirecrawl = "firecrawl"
	ProviderDirect    = "direct"
)

// NewLimiter allows one request per interval; a non-positive interval disables limiting
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// New builds the content fetcher selected by config.Fetcher.Provider.
// The Firecrawl provider requires an API key and fails with a configuration error without one.
func New(config *common.Config, logger arbor.ILogger) (interfaces.ContentFetcher, error) {
	timeout := common.ParseDuration(config.Fetcher.RequestTimeout, DefaultTimeout)
	limiter := NewLimiter(common.ParseDuration(config.Fetcher.RateLimit, 0))
	httpClient := &http.Client{Timeout: timeout}

	switch strings.ToLower(config.Fetcher.Provider) {
	case "", ProviderFirecrawl:
		apiKey, err := common.ResolveAPIKey("firecrawl_api_key", config.Firecrawl.APIKey)
		if err != nil {
			return nil, err
		}
		return NewFirecrawlClient(apiKey, logger,
			WithBaseURL(config.Firecrawl.BaseURL),
			WithHTTPClient(httpClient),
			WithLimiter(limiter),
		), nil

	case ProviderDirect:
		return NewDirectFetcher(httpClient, config.Fetcher.UserAgent, limiter, logger), nil

	default:
		return nil, common.NewConfigurationError("unsupported fetcher provider: %s", config.Fetcher.Provider)
	}
}
