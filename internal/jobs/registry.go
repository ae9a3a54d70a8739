package jobs

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
)

// NewRegistry registers every pipeline stage. Each run gets a fresh job instance.
func NewRegistry(config *common.Config, deps Dependencies, logger arbor.ILogger) *batch.Registry {
	registry := batch.NewRegistry()

	registry.Register(FetchContentJobID, func() (batch.Job, error) {
		return NewFetchContentJob(config, deps, logger), nil
	})
	registry.Register(FilterContentJobID, func() (batch.Job, error) {
		return NewFilterContentJob(config, deps, logger), nil
	})
	registry.Register(NormalizeContentJobID, func() (batch.Job, error) {
		return NewNormalizeContentJob(config, deps, logger), nil
	})

	return registry
}
