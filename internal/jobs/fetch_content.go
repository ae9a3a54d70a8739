// -----------------------------------------------------------------------
// Fetch Content Job - URL list CSV -> one markdown artifact per page
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// FetchContentJobID is the registry identifier of the fetch stage
const FetchContentJobID = "fetch_content"

// FetchContentJobName names the stage in outcomes, logs and run history
const FetchContentJobName = "FetchContent"

// FetchContentJob fetches every URL of the input CSV into a new timestamped batch directory
type FetchContentJob struct {
	*batch.Base
	config *common.Config
	deps   Dependencies
	logger arbor.ILogger

	fetcher   interfaces.ContentFetcher
	inputFile string
	urls      []string
	timestamp string
	outputDir string
}

// NewFetchContentJob creates the fetch stage job
func NewFetchContentJob(config *common.Config, deps Dependencies, logger arbor.ILogger) *FetchContentJob {
	j := &FetchContentJob{
		config: config,
		deps:   deps.withDefaults(),
		logger: logger,
	}
	j.Base = batch.NewBase(FetchContentJobName, j)
	return j
}

// BeforeExecute resolves the fetcher, reads the URL list and creates the output batch directory
func (j *FetchContentJob) BeforeExecute(ctx context.Context) error {
	fetcher, err := j.deps.NewFetcher(j.config, j.logger)
	if err != nil {
		return err
	}
	j.fetcher = fetcher

	inputFile, err := FindInputCSV(j.config.Paths.InputDir)
	if err != nil {
		return err
	}
	j.inputFile = inputFile

	urls, err := ReadURLList(inputFile, j.logger)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return common.NewValidationError("No valid URLs found in %s", inputFile)
	}
	j.urls = urls

	j.timestamp = batch.NewTimestamp(j.deps.Now())
	outputDir, err := batch.CreateBatchDir(j.config.Paths.OutputDir, "", j.timestamp)
	if err != nil {
		return err
	}
	j.outputDir = outputDir

	j.Set("input_file", inputFile)
	j.Set("output_dir", outputDir)

	j.logger.Info().
		Str("input_file", inputFile).
		Int("urls", len(urls)).
		Str("output_dir", outputDir).
		Str("fetcher", fetcher.Name()).
		Msg("Fetch job prepared")

	return nil
}

// Execute fetches each URL in order. Per-URL failures are counted and skipped.
func (j *FetchContentJob) Execute(ctx context.Context) (interface{}, error) {
	summary := &models.FetchSummary{
		TotalURLs:       len(j.urls),
		OutputDirectory: j.outputDir,
	}

	timeout := common.ParseDuration(j.config.Fetcher.RequestTimeout, 30*time.Second)

	for i, url := range j.urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seq := i + 1
		j.logger.Info().
			Int("index", seq).
			Int("total", len(j.urls)).
			Str("url", url).
			Msg("Fetching URL")

		if err := j.fetchOne(ctx, seq, url, timeout); err != nil {
			summary.Failed++
			j.logger.Error().Str("url", url).Err(err).Msg("Failed to fetch URL")
			continue
		}
		summary.Successful++
	}

	summary.SuccessRate = models.SuccessRate(summary.Successful, summary.TotalURLs)
	return summary, nil
}

func (j *FetchContentJob) fetchOne(ctx context.Context, seq int, url string, timeout time.Duration) error {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content, err := j.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		return err
	}

	record := &models.FetchRecord{
		Sequence:  seq,
		SourceURL: url,
		FetchedAt: j.deps.Now(),
		Content:   content,
	}
	path, err := WriteFetchRecord(j.outputDir, j.timestamp, record)
	if err != nil {
		return err
	}

	j.logger.Debug().Str("url", url).Str("file", path).Msg("Saved content")
	return nil
}

// AfterExecute logs the run summary
func (j *FetchContentJob) AfterExecute(ctx context.Context, result interface{}) error {
	summary, ok := result.(*models.FetchSummary)
	if !ok {
		return fmt.Errorf("unexpected fetch result type %T", result)
	}

	j.logger.Info().
		Int("total_urls", summary.TotalURLs).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Str("success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate)).
		Str("output_dir", summary.OutputDirectory).
		Msg("Fetch job summary")

	return nil
}

// OnError reports where partial results may be found
func (j *FetchContentJob) OnError(ctx context.Context, err error) {
	j.logger.Error().Err(err).Msg("Fetch job failed")
	if j.outputDir != "" {
		j.logger.Warn().Str("output_dir", j.outputDir).Msg("Partial results may be available in output directory")
	}
}
