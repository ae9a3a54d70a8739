package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/models"
)

// JobFactory builds a fresh job instance for one run
type JobFactory func() (Job, error)

// Registry maps job identifiers to factories, preserving registration order
type Registry struct {
	factories map[string]JobFactory
	order     []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]JobFactory)}
}

// Register adds or replaces the factory for id
func (r *Registry) Register(id string, factory JobFactory) {
	if _, exists := r.factories[id]; !exists {
		r.order = append(r.order, id)
	}
	r.factories[id] = factory
}

// Lookup returns the factory registered for id
func (r *Registry) Lookup(id string) (JobFactory, bool) {
	factory, ok := r.factories[id]
	return factory, ok
}

// Names returns the registered identifiers in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Runner resolves a job identifier, runs it through the Engine and maps the outcome to an exit code
type Runner struct {
	registry *Registry
	engine   *Engine
	storage  interfaces.OutcomeStorage // optional run history
	out      io.Writer
	logger   arbor.ILogger
}

// NewRunner creates a runner. storage may be nil; out defaults to stdout.
func NewRunner(registry *Registry, engine *Engine, storage interfaces.OutcomeStorage, out io.Writer, logger arbor.ILogger) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		registry: registry,
		engine:   engine,
		storage:  storage,
		out:      out,
		logger:   logger,
	}
}

// Registry returns the job registry
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Main runs the job named jobName and returns the process exit code:
// 0 when no job was requested (the available jobs are listed) or the job succeeded,
// 1 when the job is unknown, could not be built or failed.
func (r *Runner) Main(ctx context.Context, jobName string) int {
	jobName = strings.TrimSpace(jobName)
	if jobName == "" {
		r.PrintAvailable()
		return 0
	}

	factory, ok := r.registry.Lookup(jobName)
	if !ok {
		fmt.Fprintf(r.out, "Error: Unknown job '%s'\n", jobName)
		r.PrintAvailable()
		return 1
	}

	job, err := factory()
	if err != nil {
		r.logger.Error().Str("job", jobName).Err(err).Msg("Failed to create job")
		fmt.Fprintf(r.out, "Error: Failed to create job '%s': %v\n", jobName, err)
		return 1
	}

	outcome := r.Run(ctx, job)

	if data, err := outcome.ToJSON(); err == nil {
		fmt.Fprintf(r.out, "%s\n", data)
	}

	if outcome.IsSuccess() {
		return 0
	}
	return 1
}

// Run executes job and records the outcome in the run history when configured
func (r *Runner) Run(ctx context.Context, job Job) *models.JobOutcome {
	outcome := r.engine.Run(ctx, job)

	if r.storage != nil {
		if err := r.storage.SaveOutcome(ctx, outcome); err != nil {
			r.logger.Warn().Str("run_id", outcome.RunID).Err(err).Msg("Failed to save job outcome")
		}
	}

	return outcome
}

// PrintAvailable writes the list of registered jobs
func (r *Runner) PrintAvailable() {
	fmt.Fprintln(r.out, "Available jobs:")
	for _, name := range r.registry.Names() {
		fmt.Fprintf(r.out, "  - %s\n", name)
	}
}
