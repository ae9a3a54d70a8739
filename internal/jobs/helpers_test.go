package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/models"
)

var testNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

// fakeFetcher returns "content of <url>" and fails for URLs listed in failing
type fakeFetcher struct {
	failing map[string]bool
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if f.failing[url] {
		return "", common.NewExternalAPIError(errors.New("boom"), "HTTP 500: boom")
	}
	return "content of " + url, nil
}

func (f *fakeFetcher) Name() string { return "fake" }

// fakeExtractor answers by content: "raise" fails, "event" yields one event
type fakeExtractor struct {
	contents  []string
	normalize func(*models.ExtractionResult) (*models.NormalizationResult, error)
	closed    int
}

func (f *fakeExtractor) ExtractEventInfo(ctx context.Context, content, sourceURL string) (*models.ExtractionResult, error) {
	f.contents = append(f.contents, content)
	switch {
	case strings.Contains(content, "raise"):
		return nil, errors.New("extractor exploded")
	case strings.Contains(content, "event"):
		return &models.ExtractionResult{
			HasEvent:  true,
			Events:    []models.Event{{Title: "Summer Festival", StartDate: "2024-08-10"}},
			SourceURL: sourceURL,
		}, nil
	default:
		return models.NewNegativeResult(sourceURL, "", ""), nil
	}
}

func (f *fakeExtractor) NormalizeEvents(ctx context.Context, result *models.ExtractionResult) (*models.NormalizationResult, error) {
	if f.normalize != nil {
		return f.normalize(result)
	}
	normalized := make([]models.NormalizedEvent, 0, len(result.Events))
	for _, event := range result.Events {
		normalized = append(normalized, models.NormalizedEvent{Event: event, SourceURL: result.SourceURL, DataQualityScore: 0.8})
	}
	return &models.NormalizationResult{Success: true, NormalizedEvents: normalized}, nil
}

func (f *fakeExtractor) Close() error {
	f.closed++
	return nil
}

func newTestConfig(t *testing.T) *common.Config {
	t.Helper()
	root := t.TempDir()
	config := common.NewDefaultConfig()
	config.Paths.InputDir = filepath.Join(root, "input")
	config.Paths.OutputDir = filepath.Join(root, "output")
	return config
}

func testDependencies(fetcher interfaces.ContentFetcher, extractor interfaces.EventExtractor) Dependencies {
	return Dependencies{
		NewFetcher: func(config *common.Config, logger arbor.ILogger) (interfaces.ContentFetcher, error) {
			return fetcher, nil
		},
		NewExtractor: func(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.EventExtractor, error) {
			return extractor, nil
		},
		Now: func() time.Time { return testNow },
	}
}

func runJob(t *testing.T, job batch.Job) *models.JobOutcome {
	t.Helper()
	policy := batch.NewDefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	engine := batch.NewEngine(policy, arbor.NewNoOpLogger())
	outcome := engine.Run(context.Background(), job)
	require.NotNil(t, outcome)
	return outcome
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeFetchArtifact(t *testing.T, dir string, seq int, url, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	_, err := WriteFetchRecord(dir, filepath.Base(dir), &models.FetchRecord{
		Sequence:  seq,
		SourceURL: url,
		FetchedAt: testNow,
		Content:   content,
	})
	require.NoError(t, err)
}
