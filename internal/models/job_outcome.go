// -----------------------------------------------------------------------
// Job Outcome - Result envelope returned by every job run
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"time"
)

// JobStatus is the terminal status of a job run
type JobStatus string

const (
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// JobOutcome is the envelope produced by a single job run.
// Exactly one of Result and Error is populated, matching Status.
type JobOutcome struct {
	Status          JobStatus   `json:"status"`
	JobName         string      `json:"job_name"`
	RunID           string      `json:"run_id"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	DurationSeconds float64     `json:"duration_seconds"`
	Result          interface{} `json:"result,omitempty"` // stage summary on success
	Error           string      `json:"error,omitempty"`  // original error text on failure
}

// NewSuccessOutcome builds a success envelope
func NewSuccessOutcome(jobName, runID string, start, end time.Time, result interface{}) *JobOutcome {
	return &JobOutcome{
		Status:          JobStatusSuccess,
		JobName:         jobName,
		RunID:           runID,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: durationSeconds(start, end),
		Result:          result,
	}
}

// NewFailedOutcome builds a failure envelope carrying the error text
func NewFailedOutcome(jobName, runID string, start, end time.Time, err error) *JobOutcome {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	return &JobOutcome{
		Status:          JobStatusFailed,
		JobName:         jobName,
		RunID:           runID,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: durationSeconds(start, end),
		Error:           msg,
	}
}

// IsSuccess reports whether the run completed successfully
func (o *JobOutcome) IsSuccess() bool {
	return o.Status == JobStatusSuccess
}

// ToJSON renders the envelope as indented JSON
func (o *JobOutcome) ToJSON() ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

func durationSeconds(start, end time.Time) float64 {
	d := end.Sub(start).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
