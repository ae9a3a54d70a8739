package interfaces

import (
	"context"

	"github.com/ternarybob/smartcrawl/internal/models"
)

// OutcomeStorage persists job run envelopes (run history)
type OutcomeStorage interface {
	SaveOutcome(ctx context.Context, outcome *models.JobOutcome) error
	// ListOutcomes returns outcomes newest first; empty jobName matches all jobs, limit <= 0 means no limit
	ListOutcomes(ctx context.Context, jobName string, limit int) ([]*models.JobOutcome, error)
	Close() error
}
