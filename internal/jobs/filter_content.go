// -----------------------------------------------------------------------
// Filter Content Job - newest fetch batch -> one extraction artifact per page
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// FilterContentJobID is the registry identifier of the filter stage
const FilterContentJobID = "filter_content"

// FilterContentJobName names the stage in outcomes, logs and run history
const FilterContentJobName = "FilterContent"

// FilterContentJob runs event extraction over the newest fetch batch
type FilterContentJob struct {
	*batch.Base
	config *common.Config
	deps   Dependencies
	logger arbor.ILogger

	extractor interfaces.EventExtractor
	inputDir  string
	files     []string
	timestamp string
	outputDir string
}

// NewFilterContentJob creates the filter stage job
func NewFilterContentJob(config *common.Config, deps Dependencies, logger arbor.ILogger) *FilterContentJob {
	j := &FilterContentJob{
		config: config,
		deps:   deps.withDefaults(),
		logger: logger,
	}
	j.Base = batch.NewBase(FilterContentJobName, j)
	return j
}

// BeforeExecute resolves the extractor, selects the newest fetch batch and creates the output directory
func (j *FilterContentJob) BeforeExecute(ctx context.Context) error {
	extractor, err := j.deps.NewExtractor(ctx, j.config, j.logger)
	if err != nil {
		return err
	}
	j.extractor = extractor

	inputDir, err := batch.LatestFetchBatch(j.config.Paths.OutputDir)
	if err != nil {
		return err
	}
	j.inputDir = inputDir

	files, err := batch.ListFiles(inputDir, "*.md")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewConfigurationError("No markdown files found in %s", inputDir)
	}
	j.files = files

	j.timestamp = batch.NewTimestamp(j.deps.Now())
	outputDir, err := batch.CreateBatchDir(j.config.Paths.OutputDir, batch.FilteredPrefix, j.timestamp)
	if err != nil {
		return err
	}
	j.outputDir = outputDir

	j.Set("input_dir", inputDir)
	j.Set("output_dir", outputDir)

	j.logger.Info().
		Str("input_dir", inputDir).
		Int("files", len(files)).
		Str("output_dir", outputDir).
		Msg("Filter job prepared")

	return nil
}

// Execute extracts events from each file in order. Every input yields exactly
// one artifact: the extraction result, or an error record when processing failed.
func (j *FilterContentJob) Execute(ctx context.Context) (interface{}, error) {
	summary := &models.FilterSummary{
		TotalFiles:      len(j.files),
		InputDirectory:  j.inputDir,
		OutputDirectory: j.outputDir,
	}

	for i, path := range j.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		j.logger.Info().
			Int("index", i+1).
			Int("total", len(j.files)).
			Str("file", path).
			Msg("Processing file")

		result, err := j.processFile(ctx, path)
		if err != nil {
			summary.Failed++
			j.logger.Error().Str("file", path).Err(err).Msg("Failed to process file")

			if errPath, writeErr := writeErrorArtifact(j.outputDir, path, j.timestamp, err, j.deps.Now()); writeErr != nil {
				j.logger.Error().Str("file", errPath).Err(writeErr).Msg("Failed to write error record")
			}
			continue
		}

		summary.Processed++
		if result.HasEvent {
			summary.EventsFound++
			j.logger.Info().Str("file", path).Int("events", len(result.Events)).Msg("Events found")
		}
	}

	summary.SuccessRate = models.SuccessRate(summary.Processed, summary.TotalFiles)
	return summary, nil
}

func (j *FilterContentJob) processFile(ctx context.Context, path string) (*models.ExtractionResult, error) {
	record, err := ReadFetchRecord(path)
	if err != nil {
		return nil, err
	}

	result, err := j.extractor.ExtractEventInfo(ctx, record.Content, record.SourceURL)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("extractor returned no result for %s", path)
	}

	if err := writeJSON(artifactPath(j.outputDir, "filtered", path, j.timestamp), result); err != nil {
		return nil, err
	}
	return result, nil
}

// AfterExecute logs the run summary
func (j *FilterContentJob) AfterExecute(ctx context.Context, result interface{}) error {
	defer releaseExtractor(&j.extractor, j.logger)

	summary, ok := result.(*models.FilterSummary)
	if !ok {
		return fmt.Errorf("unexpected filter result type %T", result)
	}

	j.logger.Info().
		Int("total_files", summary.TotalFiles).
		Int("processed", summary.Processed).
		Int("events_found", summary.EventsFound).
		Int("failed", summary.Failed).
		Str("success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate)).
		Str("output_dir", summary.OutputDirectory).
		Msg("Filter job summary")

	return nil
}

// OnError reports where partial results may be found
func (j *FilterContentJob) OnError(ctx context.Context, err error) {
	defer releaseExtractor(&j.extractor, j.logger)

	j.logger.Error().Err(err).Msg("Filter job failed")
	if j.outputDir != "" {
		j.logger.Warn().Str("output_dir", j.outputDir).Msg("Partial results may be available in output directory")
	}
}
