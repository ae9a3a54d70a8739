package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	scheduleCron string
	scheduleNow  bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [job...]",
	Short: "Run jobs on a cron schedule until interrupted",
	Long: `Registers the named jobs (all jobs when none are given) as one pipeline
that runs on the cron schedule. Jobs run in order and the pipeline stops at the
first failure. The schedule defaults to scheduler.schedule from configuration.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "Cron expression (overrides config)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Run the pipeline once immediately")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	names := args
	if len(names) == 0 {
		names = application.Registry.Names()
	}
	for _, name := range names {
		if _, ok := application.Registry.Lookup(name); !ok {
			return fmt.Errorf("unknown job '%s'", name)
		}
	}

	schedule := config.Scheduler.Schedule
	if scheduleCron != "" {
		schedule = scheduleCron
	}

	pipeline := strings.Join(names, "+")
	err := application.SchedulerService.RegisterJob(pipeline, schedule, func() error {
		logScheduleStatus(pipeline)
		for _, name := range names {
			factory, _ := application.Registry.Lookup(name)
			job, err := factory()
			if err != nil {
				return err
			}
			outcome := application.Runner.Run(ctx, job)
			if !outcome.IsSuccess() {
				return fmt.Errorf("%s failed: %s", name, outcome.Error)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if scheduleNow {
		if err := application.SchedulerService.TriggerJob(pipeline); err != nil {
			return err
		}
		logScheduleStatus(pipeline)
	}

	if err := application.SchedulerService.Start(); err != nil {
		return err
	}

	logger.Info().
		Strs("scheduled", application.SchedulerService.JobNames()).
		Str("schedule", schedule).
		Msg("Waiting for scheduled runs (Ctrl+C to stop)")
	logScheduleStatus(pipeline)

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	if err := application.SchedulerService.Stop(); err != nil {
		return err
	}
	logScheduleStatus(pipeline)
	return nil
}

// logScheduleStatus reports the last and next run of a scheduled pipeline
func logScheduleStatus(name string) {
	status, err := application.SchedulerService.GetJobStatus(name)
	if err != nil {
		logger.Warn().Err(err).Msg("Schedule status unavailable")
		return
	}

	event := logger.Info().
		Str("pipeline", status.Name).
		Str("schedule", status.Schedule).
		Bool("running", status.IsRunning)
	if status.LastRun != nil {
		event = event.Str("last_run", status.LastRun.Format(time.RFC3339))
	}
	if status.NextRun != nil {
		event = event.Str("next_run", status.NextRun.Format(time.RFC3339))
	}
	if status.LastError != "" {
		event = event.Str("last_error", status.LastError)
	}
	event.Msg("Schedule status")
}
