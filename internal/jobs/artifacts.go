package jobs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// writeJSON writes v as two-space indented JSON. HTML characters are not
// escaped and non-ASCII text is written as is.
func writeJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// artifactPath returns dir/{prefix}_{stem of input}_{timestamp}.json
func artifactPath(dir, prefix, input, timestamp string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.json", prefix, batch.FileStem(input), timestamp))
}

// writeErrorArtifact records a per-file failure next to the successful outputs
func writeErrorArtifact(dir, input, timestamp string, cause error, now time.Time) (string, error) {
	path := artifactPath(dir, "error", input, timestamp)
	return path, writeJSON(path, &models.ExtractionError{
		HasEvent:   false,
		Error:      cause.Error(),
		SourceFile: input,
		Timestamp:  now.Format(models.FetchedAtLayout),
	})
}
