// -----------------------------------------------------------------------
// App - wires configuration, run history and the pipeline stages
// -----------------------------------------------------------------------

package app

import (
	"fmt"
	"io"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/batch"
	"github.com/ternarybob/smartcrawl/internal/common"
	"github.com/ternarybob/smartcrawl/internal/interfaces"
	"github.com/ternarybob/smartcrawl/internal/jobs"
	"github.com/ternarybob/smartcrawl/internal/services/scheduler"
	"github.com/ternarybob/smartcrawl/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Run history, nil when storage.badger.enabled is false
	OutcomeStorage interfaces.OutcomeStorage

	Registry         *batch.Registry
	Engine           *batch.Engine
	Runner           *batch.Runner
	SchedulerService *scheduler.Service
}

// New initializes the application. out receives job outcome JSON (stdout when nil).
func New(cfg *common.Config, logger arbor.ILogger, out io.Writer) (*App, error) {
	return NewWithDependencies(cfg, logger, out, jobs.DefaultDependencies())
}

// NewWithDependencies initializes the application with explicit stage dependencies
func NewWithDependencies(cfg *common.Config, logger arbor.ILogger, out io.Writer, deps jobs.Dependencies) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.Registry = jobs.NewRegistry(cfg, deps, logger)
	app.Engine = batch.NewEngine(batch.NewRetryPolicyFromConfig(&cfg.Batch), logger)
	app.Runner = batch.NewRunner(app.Registry, app.Engine, app.OutcomeStorage, out, logger)
	app.SchedulerService = scheduler.NewService(logger)

	logger.Debug().
		Strs("jobs", app.Registry.Names()).
		Bool("history", app.OutcomeStorage != nil).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initDatabase() error {
	if !a.Config.Storage.Badger.Enabled {
		a.Logger.Debug().Msg("Run history disabled")
		return nil
	}

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.OutcomeStorage = badger.NewOutcomeStorage(db, a.Logger)
	return nil
}

// Close stops the scheduler and closes the run history
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.OutcomeStorage != nil {
		if err := a.OutcomeStorage.Close(); err != nil {
			return fmt.Errorf("failed to close run history: %w", err)
		}
		a.Logger.Debug().Msg("Run history closed")
	}

	return nil
}
