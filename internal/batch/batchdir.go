package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/smartcrawl/internal/common"
)

// TimestampLayout formats batch tokens as YYYYMMDD_HHMMSS (fixed width, zero padded)
const TimestampLayout = "20060102_150405"

const (
	// FilteredPrefix names filter stage batch directories
	FilteredPrefix = "filtered_"
	// NormalizedPrefix names normalize stage batch directories
	NormalizedPrefix = "normalized_"
)

// NewTimestamp returns the batch token for t in local time
func NewTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// CreateBatchDir creates root/<prefix><timestamp> (and root when missing) and returns its path.
// An existing directory is reused.
func CreateBatchDir(root, prefix, timestamp string) (string, error) {
	dir := filepath.Join(root, prefix+timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create batch directory %s: %w", dir, err)
	}
	return dir, nil
}

// IsFetchBatchName reports whether name, with underscores removed, is a non-empty run of digits
func IsFetchBatchName(name string) bool {
	digits := strings.ReplaceAll(name, "_", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LatestFetchBatch returns the fetch batch directory under root with the greatest name.
// Selection is a plain string comparison, which orders correctly only because batch
// tokens are fixed width.
func LatestFetchBatch(root string) (string, error) {
	return latestDir(root, IsFetchBatchName, "timestamp")
}

// LatestFilteredBatch returns the newest filtered_<ts> directory under root
func LatestFilteredBatch(root string) (string, error) {
	return latestDir(root, func(name string) bool {
		return strings.HasPrefix(name, FilteredPrefix) && IsFetchBatchName(strings.TrimPrefix(name, FilteredPrefix))
	}, "filtered")
}

func latestDir(root string, match func(name string) bool, kind string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", common.NewConfigurationError("output directory not found: %s", root)
		}
		return "", fmt.Errorf("failed to read output directory %s: %w", root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && match(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", common.NewConfigurationError("no %s directories found in %s", kind, root)
	}

	sort.Strings(names)
	return filepath.Join(root, names[len(names)-1]), nil
}

// ListFiles returns the files in dir matching pattern, sorted by name
func ListFiles(dir, pattern string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %s: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}

// FileStem returns the base name of path without its extension
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
