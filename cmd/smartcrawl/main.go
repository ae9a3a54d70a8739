package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/app"
	"github.com/ternarybob/smartcrawl/internal/common"
)

var (
	// Command-line flags
	configFiles []string // later files override earlier ones
	envFile     string
	inputDir    string
	outputDir   string
	logLevel    string

	// Global state
	config      *common.Config
	logger      arbor.ILogger
	application *app.App
	exitCode    int
)

var rootCmd = &cobra.Command{
	Use:   "smartcrawl [job]",
	Short: "Batch pipeline that fetches pages and extracts event information",
	Long: `Runs one pipeline stage per invocation and prints its outcome as JSON.
Without a job name the available jobs are listed.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApplication,
	RunE:              runJob,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&inputDir, "input", "", "Input directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "Output directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(runCmd, listCmd, historyCmd, scheduleCmd, versionCmd)
}

func main() {
	os.Exit(execute())
}

func execute() int {
	defer common.RecoverWithCrashFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if application != nil {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("Failed to close application")
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return exitCode
}

// initApplication runs the startup sequence:
// .env -> config (defaults -> files -> env) -> flag overrides -> logger -> banner -> app
func initApplication(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}

	common.ApplyFlagOverrides(config, inputDir, outputDir, logLevel)

	logger = common.SetupLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Msg("Resolved configuration (sanitized)")

	application, err = app.New(config, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	exitCode = application.Runner.Main(cmd.Context(), name)
	return nil
}
