package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved pipeline directories
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("SmartCrawl", GetVersion())

	logger.Debug().
		Str("environment", config.Environment).
		Str("input_dir", config.Paths.InputDir).
		Str("output_dir", config.Paths.OutputDir).
		Str("fetcher", config.Fetcher.Provider).
		Str("llm_provider", config.LLM.DefaultProvider).
		Msg("Configuration resolved")
}
