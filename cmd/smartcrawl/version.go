package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/smartcrawl/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No configuration or storage is needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "SmartCrawl version %s\n", common.GetFullVersion())
	},
}
