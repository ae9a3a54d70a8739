package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/smartcrawl/internal/common"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [job]",
	Short: "Show recent job outcomes, newest first",
	Long: `Prints stored job outcomes as JSON. The optional job is a registry name
(fetch_content) or a job name as recorded in outcomes (FetchContent).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of outcomes (0 for all)")
}

// historyJobName maps a registry name to the job name recorded in outcomes
func historyJobName(arg string) (string, error) {
	factory, ok := application.Registry.Lookup(arg)
	if !ok {
		return arg, nil
	}
	job, err := factory()
	if err != nil {
		return "", err
	}
	return job.Name(), nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if application.OutcomeStorage == nil {
		return common.NewConfigurationError("run history is disabled (storage.badger.enabled=false)")
	}

	jobName := ""
	if len(args) > 0 {
		name, err := historyJobName(args[0])
		if err != nil {
			return err
		}
		jobName = name
	}

	outcomes, err := application.OutcomeStorage.ListOutcomes(cmd.Context(), jobName, historyLimit)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
