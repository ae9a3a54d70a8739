package interfaces

import (
	"context"

	"github.com/ternarybob/smartcrawl/internal/models"
)

// EventExtractor turns page content into structured event data using a language model.
//
// Unparseable or invalid model replies and upstream API failures are reported as
// negative results carrying an error description, not as errors. A returned error
// means the extraction could not be attempted at all.
type EventExtractor interface {
	// ExtractEventInfo finds events in a single page of content
	ExtractEventInfo(ctx context.Context, content, sourceURL string) (*models.ExtractionResult, error)

	// NormalizeEvents rewrites the events of an affirmative result into canonical form
	NormalizeEvents(ctx context.Context, result *models.ExtractionResult) (*models.NormalizationResult, error)

	// Close releases the model client
	Close() error
}
