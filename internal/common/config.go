package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	AppName     string          `toml:"app_name"`
	Logging     LoggingConfig   `toml:"logging"`
	Paths       PathsConfig     `toml:"paths"`
	Batch       BatchConfig     `toml:"batch"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Firecrawl   FirecrawlConfig `toml:"firecrawl"`
	LLM         LLMConfig       `toml:"llm"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Storage     StorageConfig   `toml:"storage"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default: "15:04:05"
	Dir        string   `toml:"dir"`         // log file directory when "file" output is enabled
}

// PathsConfig holds the working directories of the pipeline
type PathsConfig struct {
	InputDir  string `toml:"input_dir"`  // directory holding the URL list CSV
	OutputDir string `toml:"output_dir"` // root of all batch directories
}

// BatchConfig controls the job lifecycle retry policy
type BatchConfig struct {
	RetryAttempts    int     `toml:"retry_attempts"`     // total attempts of Execute, including the first
	RetryInitialWait string  `toml:"retry_initial_wait"` // e.g. "1s"
	RetryMinWait     string  `toml:"retry_min_wait"`     // e.g. "4s"
	RetryMaxWait     string  `toml:"retry_max_wait"`     // e.g. "10s"
	RetryMultiplier  float64 `toml:"retry_multiplier"`
}

// FetcherConfig selects and tunes the content-fetch capability
type FetcherConfig struct {
	Provider       string `toml:"provider"`        // "firecrawl" or "direct"
	RequestTimeout string `toml:"request_timeout"` // per-URL timeout, e.g. "30s"
	RateLimit      string `toml:"rate_limit"`      // minimum delay between requests, "0s" disables
	UserAgent      string `toml:"user_agent"`
}

type FirecrawlConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// LLMConfig holds provider-neutral extraction settings
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider"` // "claude" or "gemini"
	Temperature     float32 `toml:"temperature"`
	MaxTokens       int     `toml:"max_tokens"`
}

type ClaudeConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig configures the run history database
type BadgerConfig struct {
	Enabled        bool   `toml:"enabled"`
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // wipe history when the store is opened
}

type SchedulerConfig struct {
	Schedule string `toml:"schedule"` // cron expression used by the schedule command
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		AppName:     "smartcrawl",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
			Dir:        "logs",
		},
		Paths: PathsConfig{
			InputDir:  "input",
			OutputDir: "output",
		},
		Batch: BatchConfig{
			RetryAttempts:    3,
			RetryInitialWait: "1s",
			RetryMinWait:     "4s",
			RetryMaxWait:     "10s",
			RetryMultiplier:  2,
		},
		Fetcher: FetcherConfig{
			Provider:       "firecrawl",
			RequestTimeout: "30s",
			RateLimit:      "0s",
			UserAgent:      "SmartCrawl/1.0 (+https://github.com/ternarybob/smartcrawl)",
		},
		Firecrawl: FirecrawlConfig{
			BaseURL: "https://api.firecrawl.dev",
		},
		LLM: LLMConfig{
			DefaultProvider: "claude",
			Temperature:     0.1,
			MaxTokens:       2000,
		},
		Claude: ClaudeConfig{
			Model:   "claude-3-haiku-20240307",
			Timeout: "2m",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "2m",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled: true,
				Path:    "./data/history",
			},
		},
		Scheduler: SchedulerConfig{
			Schedule: "0 6 * * *",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; missing paths are an error, empty paths are skipped.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// SMARTCRAWL_ prefixed names take priority over the plain names.
func applyEnvOverrides(config *Config) {
	if env := firstEnv("SMARTCRAWL_ENV", "ENV"); env != "" {
		config.Environment = env
	}
	if name := firstEnv("SMARTCRAWL_APP_NAME", "APP_NAME"); name != "" {
		config.AppName = name
	}

	// Logging
	if level := firstEnv("SMARTCRAWL_LOG_LEVEL", "LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SMARTCRAWL_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if dir := os.Getenv("SMARTCRAWL_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}

	// Paths
	if dir := os.Getenv("SMARTCRAWL_INPUT_DIR"); dir != "" {
		config.Paths.InputDir = dir
	}
	if dir := os.Getenv("SMARTCRAWL_OUTPUT_DIR"); dir != "" {
		config.Paths.OutputDir = dir
	}

	// Batch retry policy
	if attempts := firstEnv("SMARTCRAWL_BATCH_RETRY_ATTEMPTS", "BATCH_RETRY_COUNT"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			config.Batch.RetryAttempts = n
		}
	}
	if wait := os.Getenv("SMARTCRAWL_BATCH_RETRY_MIN_WAIT"); wait != "" {
		config.Batch.RetryMinWait = wait
	}
	if wait := os.Getenv("SMARTCRAWL_BATCH_RETRY_MAX_WAIT"); wait != "" {
		config.Batch.RetryMaxWait = wait
	}

	// Fetcher
	if provider := os.Getenv("SMARTCRAWL_FETCHER_PROVIDER"); provider != "" {
		config.Fetcher.Provider = provider
	}
	if timeout := os.Getenv("SMARTCRAWL_FETCHER_REQUEST_TIMEOUT"); timeout != "" {
		config.Fetcher.RequestTimeout = timeout
	}
	if rateLimit := os.Getenv("SMARTCRAWL_FETCHER_RATE_LIMIT"); rateLimit != "" {
		config.Fetcher.RateLimit = rateLimit
	}
	if userAgent := os.Getenv("SMARTCRAWL_FETCHER_USER_AGENT"); userAgent != "" {
		config.Fetcher.UserAgent = userAgent
	}

	// Firecrawl
	if apiKey := firstEnv("SMARTCRAWL_FIRECRAWL_API_KEY", "FIRECRAWL_API_KEY"); apiKey != "" {
		config.Firecrawl.APIKey = apiKey
	}
	if baseURL := os.Getenv("SMARTCRAWL_FIRECRAWL_BASE_URL"); baseURL != "" {
		config.Firecrawl.BaseURL = baseURL
	}

	// LLM
	if provider := os.Getenv("SMARTCRAWL_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}
	if temp := os.Getenv("SMARTCRAWL_LLM_TEMPERATURE"); temp != "" {
		if t, err := strconv.ParseFloat(temp, 32); err == nil {
			config.LLM.Temperature = float32(t)
		}
	}
	if maxTokens := os.Getenv("SMARTCRAWL_LLM_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.LLM.MaxTokens = mt
		}
	}

	// Claude
	if apiKey := firstEnv("SMARTCRAWL_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("SMARTCRAWL_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if timeout := os.Getenv("SMARTCRAWL_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}

	// Gemini
	if apiKey := firstEnv("SMARTCRAWL_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("SMARTCRAWL_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("SMARTCRAWL_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}

	// Storage
	if enabled := os.Getenv("SMARTCRAWL_STORAGE_BADGER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Storage.Badger.Enabled = b
		}
	}
	if path := os.Getenv("SMARTCRAWL_STORAGE_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	// Scheduler
	if schedule := os.Getenv("SMARTCRAWL_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config (highest priority).
// Empty values leave the config untouched.
func ApplyFlagOverrides(config *Config, inputDir, outputDir, logLevel string) {
	if inputDir != "" {
		config.Paths.InputDir = inputDir
	}
	if outputDir != "" {
		config.Paths.OutputDir = outputDir
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// IsProduction reports whether the configured environment is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ResolveAPIKey resolves an API key by name: environment variables first, then the config value.
// Returns a configuration error when neither source provides one.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"firecrawl_api_key": {"SMARTCRAWL_FIRECRAWL_API_KEY", "FIRECRAWL_API_KEY"},
		"anthropic_api_key": {"SMARTCRAWL_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini_api_key":    {"SMARTCRAWL_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		if envValue := firstEnv(envVarNames...); envValue != "" {
			return envValue, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", NewConfigurationError("%s not found in environment or config", strings.ToUpper(name))
}

// ParseDuration parses a config duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
