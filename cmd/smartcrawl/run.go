package main

import (
	"github.com/spf13/cobra"
)

var runAll bool

var runCmd = &cobra.Command{
	Use:   "run [job...]",
	Short: "Run one or more jobs in order",
	Long: `Runs the named jobs in order, stopping at the first failure.
With --all every registered job runs in registration order (fetch, filter, normalize).`,
	RunE: runJobs,
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run every registered job in order")
}

func runJobs(cmd *cobra.Command, args []string) error {
	names := args
	if runAll {
		names = application.Registry.Names()
	}
	if len(names) == 0 {
		exitCode = application.Runner.Main(cmd.Context(), "")
		return nil
	}

	for _, name := range names {
		exitCode = application.Runner.Main(cmd.Context(), name)
		if exitCode != 0 {
			logger.Warn().Str("job", name).Msg("Stopping pipeline after failed job")
			return nil
		}
	}
	return nil
}
