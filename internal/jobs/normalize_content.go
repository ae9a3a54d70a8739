// -----------------------------------------------------------------------
// Normalize Content Job - newest filter batch -> canonical event records
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// NormalizeContentJobID is the registry identifier of the normalize stage
const NormalizeContentJobID = "normalize_content"

// NormalizeContentJobName names the stage in outcomes, logs and run history
const NormalizeContentJobName = "NormalizeContent"

// NormalizeContentJob normalizes the affirmative extraction results of the newest filter batch
type NormalizeContentJob struct {
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

// NewNormalizeContentJob creates the normalize stage job
func NewNormalizeContentJob(config *common.Config, deps Dependencies, logger arbor.ILogger) *NormalizeContentJob {
	j := &NormalizeContentJob{
		config: config,
		deps:   deps.withDefaults(),
		logger: logger,
	}
	j.Base = batch.NewBase(NormalizeContentJobName, j)
	return j
}

func (j *NormalizeContentJob) BeforeExecute(ctx context.Context) error {
	extractor, err := j.deps.NewExtractor(ctx, j.config, j.logger)
	if err != nil {
		return err
	}
	j.extractor = extractor

	inputDir, err := batch.LatestFilteredBatch(j.config.Paths.OutputDir)
	if err != nil {
		return err
	}
	j.inputDir = inputDir

	files, err := batch.ListFiles(inputDir, "filtered_*.json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewConfigurationError("No filtered results found in %s", inputDir)
	}
	j.files = files

	j.timestamp = batch.NewTimestamp(j.deps.Now())
	outputDir, err := batch.CreateBatchDir(j.config.Paths.OutputDir, batch.NormalizedPrefix, j.timestamp)
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
		Msg("Normalize job prepared")

	return nil
}

func (j *NormalizeContentJob) Execute(ctx context.Context) (interface{}, error) {
	summary := &models.NormalizeSummary{
		TotalFiles:      len(j.files),
		InputDirectory:  j.inputDir,
		OutputDirectory: j.outputDir,
	}

	for _, path := range j.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		normalized, err := j.processFile(ctx, path)
		switch {
		case err != nil:
			summary.Failed++
			j.logger.Error().Str("file", path).Err(err).Msg("Failed to normalize file")
			if errPath, writeErr := writeErrorArtifact(j.outputDir, path, j.timestamp, err, j.deps.Now()); writeErr != nil {
				j.logger.Error().Str("file", errPath).Err(writeErr).Msg("Failed to write error record")
			}
		case normalized:
			summary.Normalized++
		default:
			summary.Skipped++
		}
	}

	return summary, nil
}

// processFile reports whether the file held events that were normalized
func (j *NormalizeContentJob) processFile(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var extraction models.ExtractionResult
	if err := json.Unmarshal(data, &extraction); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if !extraction.HasEvent {
		return false, nil
	}

	result, err := j.extractor.NormalizeEvents(ctx, &extraction)
	if err != nil {
		return false, err
	}

	if err := writeJSON(artifactPath(j.outputDir, "normalized", path, j.timestamp), result); err != nil {
		return false, err
	}
	return true, nil
}

func (j *NormalizeContentJob) AfterExecute(ctx context.Context, result interface{}) error {
	defer releaseExtractor(&j.extractor, j.logger)

	summary, ok := result.(*models.NormalizeSummary)
	if !ok {
		return fmt.Errorf("unexpected normalize result type %T", result)
	}

	j.logger.Info().
		Int("total_files", summary.TotalFiles).
		Int("normalized", summary.Normalized).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Str("output_dir", summary.OutputDirectory).
		Msg("Normalize job summary")

	return nil
}

func (j *NormalizeContentJob) OnError(ctx context.Context, err error) {
	defer releaseExtractor(&j.extractor, j.logger)

	j.logger.Error().Err(err).Msg("Normalize job failed")
}
