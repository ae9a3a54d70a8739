package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available jobs",
	Run: func(cmd *cobra.Command, args []string) {
		application.Runner.PrintAvailable()
	},
}
