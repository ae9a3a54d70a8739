package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// Engine drives jobs through their lifecycle and produces a JobOutcome per run
type Engine struct {
	retry  *RetryPolicy
	logger arbor.ILogger
	now    func() time.Time
	newID  func() string
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithClock replaces the wall clock used for run timing
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunIDGenerator replaces the run ID generator
func WithRunIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		e.newID = newID
	}
}

// NewEngine creates an engine applying policy to every Execute call
func NewEngine(policy *RetryPolicy, logger arbor.ILogger, opts ...EngineOption) *Engine {
	if policy == nil {
		policy = NewDefaultRetryPolicy()
	}
	e := &Engine{
		retry:  policy,
		logger: logger,
		now:    time.Now,
		newID:  common.NewRunID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one full lifecycle of job. It never panics and never returns nil:
// every failure, including a panic inside a hook, becomes a failed outcome that
// carries the original error.
func (e *Engine) Run(ctx context.Context, job Job) *models.JobOutcome {
	runID := e.newID()
	jobName := job.Name()
	logger := e.logger.WithCorrelationId(runID)

	var b *Base
	if t, ok := job.(timed); ok {
		b = t.base()
	}

	start := e.now()
	if b != nil {
		b.markStarted(start)
	}

	logger.Info().Str("job", jobName).Str("run_id", runID).Msg("Starting job")

	result, err := e.execute(ctx, job, logger)

	end := e.now()
	if b != nil {
		b.markFinished(end)
	}

	if err != nil {
		logger.Error().
			Str("job", jobName).
			Str("category", common.ErrorCategory(err)).
			Err(err).
			Msg("Job failed")

		e.notifyError(ctx, job, err, logger)
		return models.NewFailedOutcome(jobName, runID, start, end, err)
	}

	outcome := models.NewSuccessOutcome(jobName, runID, start, end, result)
	logger.Info().
		Str("job", jobName).
		Str("duration", fmt.Sprintf("%.2fs", outcome.DurationSeconds)).
		Msg("Job completed successfully")
	return outcome
}

func (e *Engine) execute(ctx context.Context, job Job, logger arbor.ILogger) (interface{}, error) {
	if err := guard("before_execute", func() error { return job.BeforeExecute(ctx) }); err != nil {
		return nil, err
	}

	result, err := Do(ctx, e.retry, logger, func(ctx context.Context) (interface{}, error) {
		var out interface{}
		err := guard("execute", func() error {
			var execErr error
			out, execErr = job.Execute(ctx)
			return execErr
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		// A success always carries a summary, even an empty one
		result = map[string]interface{}{}
	}

	if err := guard("after_execute", func() error { return job.AfterExecute(ctx, result) }); err != nil {
		return nil, err
	}

	return result, nil
}

// notifyError calls OnError best-effort. A panic in the hook is logged and
// does not replace the original error.
func (e *Engine) notifyError(ctx context.Context, job Job, err error, logger arbor.ILogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().
				Str("job", job.Name()).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("on_error hook failed")
		}
	}()
	job.OnError(ctx, err)
}

// guard converts a panic in fn into an error
func guard(hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", hook, r)
		}
	}()
	return fn()
}
