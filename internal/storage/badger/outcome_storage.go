package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// OutcomeRecord is the stored form of a JobOutcome. The stage summary is kept
// as JSON so that any result type survives the gob encoding used by badgerhold.
type OutcomeRecord struct {
	RunID           string
	JobName         string
	Status          models.JobStatus
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds float64
	Result          []byte
	Error           string
}

// OutcomeStorage keeps job run history in Badger
type OutcomeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOutcomeStorage creates the run history store. Closing it closes db.
func NewOutcomeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OutcomeStorage {
	return &OutcomeStorage{
		db:     db,
		logger: logger,
	}
}

func (s *OutcomeStorage) SaveOutcome(ctx context.Context, outcome *models.JobOutcome) error {
	if outcome == nil {
		return fmt.Errorf("outcome is required")
	}
	if outcome.RunID == "" {
		return fmt.Errorf("outcome run ID is required")
	}

	record := OutcomeRecord{
		RunID:           outcome.RunID,
		JobName:         outcome.JobName,
		Status:          outcome.Status,
		StartTime:       outcome.StartTime,
		EndTime:         outcome.EndTime,
		DurationSeconds: outcome.DurationSeconds,
		Error:           outcome.Error,
	}
	if outcome.Result != nil {
		data, err := json.Marshal(outcome.Result)
		if err != nil {
			return fmt.Errorf("failed to encode outcome result: %w", err)
		}
		record.Result = data
	}

	if err := s.db.Store().Upsert(record.RunID, &record); err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}

	s.logger.Debug().Str("run_id", record.RunID).Str("job", record.JobName).Msg("Outcome saved")
	return nil
}

func (s *OutcomeStorage) ListOutcomes(ctx context.Context, jobName string, limit int) ([]*models.JobOutcome, error) {
	query := badgerhold.Where("RunID").Ne("")
	if jobName != "" {
		query = badgerhold.Where("JobName").Eq(jobName)
	}
	query = query.SortBy("StartTime").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []OutcomeRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	outcomes := make([]*models.JobOutcome, 0, len(records))
	for _, record := range records {
		outcome := &models.JobOutcome{
			Status:          record.Status,
			JobName:         record.JobName,
			RunID:           record.RunID,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			DurationSeconds: record.DurationSeconds,
			Error:           record.Error,
		}
		if len(record.Result) > 0 {
			outcome.Result = json.RawMessage(record.Result)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *OutcomeStorage) Close() error {
	return s.db.Close()
}
