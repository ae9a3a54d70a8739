package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// scriptedJob records hook calls and fails according to its fields
type scriptedJob struct {
	*Base
	calls        []string
	beforeErr    error
	executeErrs  []error // consumed per attempt
	afterErr     error
	result       interface{}
	panicOnError bool
	panicExecute bool
	seenErr      error
}

func newScriptedJob() *scriptedJob {
	j := &scriptedJob{result: map[string]int{"count": 1}}
	j.Base = NewBase("", j)
	return j
}

func (j *scriptedJob) BeforeExecute(ctx context.Context) error {
	j.calls = append(j.calls, "before")
	return j.beforeErr
}

func (j *scriptedJob) Execute(ctx context.Context) (interface{}, error) {
	j.calls = append(j.calls, "execute")
	if j.panicExecute {
		panic("kaboom")
	}
	if len(j.executeErrs) > 0 {
		err := j.executeErrs[0]
		j.executeErrs = j.executeErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return j.result, nil
}

func (j *scriptedJob) AfterExecute(ctx context.Context, result interface{}) error {
	j.calls = append(j.calls, "after")
	return j.afterErr
}

func (j *scriptedJob) OnError(ctx context.Context, err error) {
	j.calls = append(j.calls, "on_error")
	j.seenErr = err
	if j.panicOnError {
		panic("hook failure")
	}
}

// stepClock advances one second per call
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(time.Second)
		return t
	}
}

func newTestEngine() *Engine {
	policy := NewDefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewEngine(policy, arbor.NewNoOpLogger(),
		WithClock(stepClock(start)),
		WithRunIDGenerator(func() string { return "run_test" }))
}

func TestNewBase_DefaultsToTypeName(t *testing.T) {
	job := newScriptedJob()
	assert.Equal(t, "scriptedJob", job.Name())
	assert.True(t, job.StartTime().IsZero())
	assert.True(t, job.EndTime().IsZero())

	named := NewBase("custom", job)
	assert.Equal(t, "custom", named.Name())
}

func TestRun_Success(t *testing.T) {
	job := newScriptedJob()
	outcome := newTestEngine().Run(context.Background(), job)

	require.NotNil(t, outcome)
	assert.Equal(t, models.JobStatusSuccess, outcome.Status)
	assert.Equal(t, "scriptedJob", outcome.JobName)
	assert.Equal(t, "run_test", outcome.RunID)
	assert.Equal(t, job.result, outcome.Result)
	assert.Empty(t, outcome.Error)
	assert.Equal(t, 1.0, outcome.DurationSeconds)
	assert.Equal(t, []string{"before", "execute", "after"}, job.calls)
	assert.Equal(t, outcome.StartTime, job.StartTime())
	assert.Equal(t, outcome.EndTime, job.EndTime())
}

func TestRun_RetriesExecuteOnly(t *testing.T) {
	job := newScriptedJob()
	job.executeErrs = []error{errors.New("flaky"), nil}

	outcome := newTestEngine().Run(context.Background(), job)

	assert.True(t, outcome.IsSuccess())
	assert.Equal(t, []string{"before", "execute", "execute", "after"}, job.calls)
}

func TestRun_ExecuteExhaustsRetries(t *testing.T) {
	job := newScriptedJob()
	final := errors.New("third failure")
	job.executeErrs = []error{errors.New("one"), errors.New("two"), final}

	outcome := newTestEngine().Run(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, outcome.Status)
	assert.Equal(t, "third failure", outcome.Error)
	assert.Nil(t, outcome.Result)
	assert.Same(t, final, job.seenErr)
	assert.Equal(t, []string{"before", "execute", "execute", "execute", "on_error"}, job.calls)
}

func TestRun_BeforeExecuteFailureIsNotRetried(t *testing.T) {
	job := newScriptedJob()
	job.beforeErr = errors.New("FIRECRAWL_API_KEY not found")

	outcome := newTestEngine().Run(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, outcome.Status)
	assert.Equal(t, "FIRECRAWL_API_KEY not found", outcome.Error)
	assert.Equal(t, []string{"before", "on_error"}, job.calls)
}

func TestRun_AfterExecuteFailureFailsRun(t *testing.T) {
	job := newScriptedJob()
	job.afterErr = errors.New("report failed")

	outcome := newTestEngine().Run(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, outcome.Status)
	assert.Equal(t, "report failed", outcome.Error)
	assert.Equal(t, []string{"before", "execute", "after", "on_error"}, job.calls)
}

func TestRun_OnErrorPanicDoesNotMaskOriginal(t *testing.T) {
	job := newScriptedJob()
	job.beforeErr = errors.New("original")
	job.panicOnError = true

	var outcome *models.JobOutcome
	require.NotPanics(t, func() {
		outcome = newTestEngine().Run(context.Background(), job)
	})

	assert.Equal(t, models.JobStatusFailed, outcome.Status)
	assert.Equal(t, "original", outcome.Error)
}

func TestRun_NilResultBecomesEmptySummary(t *testing.T) {
	job := newScriptedJob()
	job.result = nil

	outcome := newTestEngine().Run(context.Background(), job)

	require.True(t, outcome.IsSuccess())
	assert.Equal(t, map[string]interface{}{}, outcome.Result)
	assert.Empty(t, outcome.Error)

	data, err := outcome.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result": {}`)
	assert.NotContains(t, string(data), `"error"`)
}

func TestRun_EmptyErrorTextStillReported(t *testing.T) {
	job := newScriptedJob()
	job.beforeErr = errors.New("")

	outcome := newTestEngine().Run(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, outcome.Status)
	assert.Equal(t, "unknown error", outcome.Error)
	assert.Nil(t, outcome.Result)

	data, err := outcome.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error": "unknown error"`)
	assert.NotContains(t, string(data), `"result"`)
}

func TestRun_ExecutePanicBecomesFailure(t *testing.T) {
	job := newScriptedJob()
	job.panicExecute = true

	outcome := newTestEngine().Run(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Error, "panic in execute: kaboom")
}

func TestRun_RerunOverwritesTiming(t *testing.T) {
	job := newScriptedJob()
	engine := newTestEngine()

	first := engine.Run(context.Background(), job)
	second := engine.Run(context.Background(), job)

	assert.True(t, second.StartTime.After(first.EndTime))
	assert.Equal(t, second.StartTime, job.StartTime())
	assert.Equal(t, second.EndTime, job.EndTime())
	assert.GreaterOrEqual(t, second.DurationSeconds, 0.0)
}

// plainJob does not embed Base
type plainJob struct{}

func (plainJob) Name() string                                          { return "plain" }
func (plainJob) BeforeExecute(ctx context.Context) error               { return nil }
func (plainJob) Execute(ctx context.Context) (interface{}, error)      { return "ok", nil }
func (plainJob) AfterExecute(ctx context.Context, r interface{}) error { return nil }
func (plainJob) OnError(ctx context.Context, err error)                {}

func TestRun_JobWithoutBase(t *testing.T) {
	outcome := newTestEngine().Run(context.Background(), plainJob{})

	assert.True(t, outcome.IsSuccess())
	assert.Equal(t, "plain", outcome.JobName)
	assert.Equal(t, "ok", outcome.Result)
}
