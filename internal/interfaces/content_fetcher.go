package interfaces

import (
	"context"
)

// ContentFetcher retrieves the main content of a web page as markdown
type ContentFetcher interface {
	// Fetch returns the markdown content for url. Any transport failure, non-success
	// upstream status or empty content is an error.
	Fetch(ctx context.Context, url string) (string, error)

	// Name identifies the provider in logs ("firecrawl", "direct")
	Name() string
}
