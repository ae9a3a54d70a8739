package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"golang.org/x/time/rate"
)

const (
	// noiseSelectors are removed before main content selection
	noiseSelectors = "script, style, noscript, nav, header, footer, aside, iframe, form"

	// mainContentSelectors are tried in order; the first non-empty match wins
	mainContentSelectors = "main, article, [role=main], #content, .content, .main-content, #main"

	// maxPageSize caps the HTML read from a single page
	maxPageSize = 10 * 1024 * 1024
)

// DirectFetcher downloads pages itself and converts their main content to markdown
type DirectFetcher struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewDirectFetcher creates a fetcher using httpClient (a default client when nil)
func NewDirectFetcher(httpClient *http.Client, userAgent string, limiter *rate.Limiter, logger arbor.ILogger) *DirectFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &DirectFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		limiter:    limiter,
		logger:     logger,
	}
}

func (f *DirectFetcher) Name() string {
	return "direct"
}

// Fetch downloads targetURL and returns its main content as markdown
func (f *DirectFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", common.NewExternalAPIError(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", common.NewExternalAPIError(nil, "HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	html, err := mainContentHTML(doc)
	if err != nil {
		return "", err
	}

	converter := md.NewConverter(targetURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", common.NewExternalAPIError(nil, "No markdown content in response")
	}

	f.logger.Debug().Str("url", targetURL).Int("length", len(markdown)).Msg("Page converted to markdown")
	return markdown, nil
}

// mainContentHTML strips page chrome and returns the HTML of the main content region
func mainContentHTML(doc *goquery.Document) (string, error) {
	doc.Find(noiseSelectors).Remove()

	for _, selector := range strings.Split(mainContentSelectors, ",") {
		selection := doc.Find(strings.TrimSpace(selector)).First()
		if selection.Length() > 0 && strings.TrimSpace(selection.Text()) != "" {
			return selection.Html()
		}
	}

	return doc.Find("body").Html()
}
