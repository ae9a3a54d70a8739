package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// SourceURLPrefix starts the first header line of a fetch artifact
	SourceURLPrefix = "# Content from: "
	// FetchedAtPrefix starts the second header line of a fetch artifact
	FetchedAtPrefix = "# Fetched at: "
	// FetchedAtLayout is an ISO-8601 local timestamp with microseconds
	FetchedAtLayout = "2006-01-02T15:04:05.000000"
)

// FetchRecord is one fetched page, persisted as a markdown artifact
type FetchRecord struct {
	Sequence  int // 1-based position in the URL list
	SourceURL string
	FetchedAt time.Time
	Content   string
}

// FileName returns the artifact name {seq:03d}_{batch ts}.md
func (r *FetchRecord) FileName(batchTimestamp string) string {
	return fmt.Sprintf("%03d_%s.md", r.Sequence, batchTimestamp)
}

// Render returns the artifact body: two header lines, a blank line, then the content
func (r *FetchRecord) Render() string {
	var b strings.Builder
	b.WriteString(SourceURLPrefix)
	b.WriteString(r.SourceURL)
	b.WriteString("\n")
	b.WriteString(FetchedAtPrefix)
	b.WriteString(r.FetchedAt.Format(FetchedAtLayout))
	b.WriteString("\n\n")
	b.WriteString(r.Content)
	return b.String()
}
