package jobs

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/services/fetcher"
	"github.com/ternarybob/smartcrawl/internal/services/llm"
)

// FetcherFactory builds the content fetcher for a fetch run
type FetcherFactory func(config *common.Config, logger arbor.ILogger) (interfaces.ContentFetcher, error)

// ExtractorFactory builds the event extractor for a filter or normalize run
type ExtractorFactory func(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.EventExtractor, error)

// Dependencies are the external capabilities the stages are built with
type Dependencies struct {
	NewFetcher   FetcherFactory
	NewExtractor ExtractorFactory
	Now          func() time.Time
}

// DefaultDependencies wires the configured fetcher and LLM providers
func DefaultDependencies() Dependencies {
	return Dependencies{
		NewFetcher: fetcher.New,
		NewExtractor: func(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.EventExtractor, error) {
			extractor, err := llm.NewExtractor(ctx, config, logger)
			if err != nil {
				return nil, err
			}
			return extractor, nil
		},
		Now: time.Now,
	}
}

func (d Dependencies) withDefaults() Dependencies {
	defaults := DefaultDependencies()
	if d.NewFetcher == nil {
		d.NewFetcher = defaults.NewFetcher
	}
	if d.NewExtractor == nil {
		d.NewExtractor = defaults.NewExtractor
	}
	if d.Now == nil {
		d.Now = defaults.Now
	}
	return d
}

// releaseExtractor closes the extractor held in *extractor once; later calls are no-ops
func releaseExtractor(extractor *interfaces.EventExtractor, logger arbor.ILogger) {
	if *extractor == nil {
		return
	}
	if err := (*extractor).Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close event extractor")
	}
	*extractor = nil
}
