package jobs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
)

// URLColumn is the required header of the input CSV
const URLColumn = "url"

// FindInputCSV returns the first *.csv file in dir by name
func FindInputCSV(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", common.NewConfigurationError("Input directory not found: %s", dir)
	}

	files, err := batch.ListFiles(dir, "*.csv")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", common.NewConfigurationError("No CSV files found in %s", dir)
	}
	return files[0], nil
}

// ReadURLList reads the url column of a CSV file. Values not starting with
// "http" are skipped with a warning; blank values are skipped silently.
func ReadURLList(path string, logger arbor.ILogger) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, common.NewValidationError("CSV file must contain '%s' column", URLColumn)
		}
		return nil, common.NewValidationError("failed to read CSV header: %v", err)
	}

	column := -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == URLColumn {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, common.NewValidationError("CSV file must contain '%s' column", URLColumn)
	}

	var urls []string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.NewValidationError("failed to read CSV line %d: %v", line, err)
		}
		if column >= len(record) {
			continue
		}

		value := strings.TrimSpace(record[column])
		if value == "" {
			continue
		}
		if !strings.HasPrefix(value, "http") {
			logger.Warn().Str("url", value).Int("line", line).Msg("Skipping invalid URL")
			continue
		}
		urls = append(urls, value)
	}

	return urls, nil
}
