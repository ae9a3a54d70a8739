package jobs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/smartcrawl/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// WriteFetchRecord writes record into dir and returns the file path
func WriteFetchRecord(dir, batchTimestamp string, record *models.FetchRecord) (string, error) {
	path := filepath.Join(dir, record.FileName(batchTimestamp))
	if err := os.WriteFile(path, []byte(record.Render()), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ReadFetchRecord loads a fetch artifact. Header lines that are missing leave
// the matching fields empty; Content holds the text after the header block.
func ReadFetchRecord(path string) (*models.FetchRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	header := parseFetchHeader(data)
	record := &models.FetchRecord{
		SourceURL: header.sourceURL,
		Content:   string(data[header.bodyStart:]),
	}

	if seq, err := strconv.Atoi(strings.SplitN(filepath.Base(path), "_", 2)[0]); err == nil {
		record.Sequence = seq
	}

	if header.fetchedAt != "" {
		if t, err := time.ParseInLocation(models.FetchedAtLayout, header.fetchedAt, time.Local); err == nil {
			record.FetchedAt = t
		}
	}

	return record, nil
}

// ExtractSourceURL returns the URL of the "# Content from:" heading, or "" when absent
func ExtractSourceURL(source []byte) string {
	return parseFetchHeader(source).sourceURL
}

// fetchHeader holds the values read from the header headings of an artifact
type fetchHeader struct {
	sourceURL string
	fetchedAt string
	bodyStart int // offset of the body; 0 unless the artifact opens with both headings
}

var (
	sourceURLLabel = strings.TrimSpace(strings.TrimPrefix(models.SourceURLPrefix, "#"))
	fetchedAtLabel = strings.TrimSpace(strings.TrimPrefix(models.FetchedAtPrefix, "#"))
)

// parseFetchHeader reads the header from the top-level level-1 headings of
// source. Headings inside code blocks, quotes or lists are not considered.
func parseFetchHeader(source []byte) fetchHeader {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var header fetchHeader
	var opening []*ast.Heading
	leading := true

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 1 {
			leading = false
			continue
		}

		raw := headingText(heading, source)
		switch {
		case strings.HasPrefix(raw, sourceURLLabel):
			if header.sourceURL == "" {
				header.sourceURL = strings.TrimSpace(strings.TrimPrefix(raw, sourceURLLabel))
			}
			if leading && len(opening) == 0 {
				opening = append(opening, heading)
				continue
			}
		case strings.HasPrefix(raw, fetchedAtLabel):
			if header.fetchedAt == "" {
				header.fetchedAt = strings.TrimSpace(strings.TrimPrefix(raw, fetchedAtLabel))
			}
			if leading && len(opening) == 1 {
				opening = append(opening, heading)
				continue
			}
		}
		leading = false
	}

	if len(opening) == 2 {
		header.bodyStart = bodyOffset(opening[1], source)
	}
	return header
}

// headingText returns the raw source text of heading
func headingText(heading *ast.Heading, source []byte) string {
	var raw bytes.Buffer
	lines := heading.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		raw.Write(segment.Value(source))
	}
	return strings.TrimSpace(raw.String())
}

// bodyOffset returns the offset just past the line ending heading and one
// following blank separator line
func bodyOffset(heading *ast.Heading, source []byte) int {
	lines := heading.Lines()
	if lines.Len() == 0 {
		return 0
	}
	offset := lines.At(lines.Len() - 1).Stop
	nl := bytes.IndexByte(source[offset:], '\n')
	if nl < 0 {
		return len(source)
	}
	offset += nl + 1
	if offset < len(source) && source[offset] == '\n' {
		offset++
	}
	return offset
}
