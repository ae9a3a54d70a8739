package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so host settings do not leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SMARTCRAWL_ENV", "ENV", "SMARTCRAWL_APP_NAME", "APP_NAME",
		"SMARTCRAWL_LOG_LEVEL", "LOG_LEVEL",
		"SMARTCRAWL_BATCH_RETRY_ATTEMPTS", "BATCH_RETRY_COUNT",
		"SMARTCRAWL_INPUT_DIR", "SMARTCRAWL_OUTPUT_DIR",
		"SMARTCRAWL_FIRECRAWL_API_KEY", "FIRECRAWL_API_KEY",
		"SMARTCRAWL_CLAUDE_API_KEY", "ANTHROPIC_API_KEY",
		"SMARTCRAWL_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"SMARTCRAWL_STORAGE_BADGER_ENABLED",
	} {
		t.Setenv(name, "")
	}
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "input", config.Paths.InputDir)
	assert.Equal(t, "output", config.Paths.OutputDir)
	assert.Equal(t, 3, config.Batch.RetryAttempts)
	assert.Equal(t, "4s", config.Batch.RetryMinWait)
	assert.Equal(t, "10s", config.Batch.RetryMaxWait)
	assert.Equal(t, "firecrawl", config.Fetcher.Provider)
	assert.Equal(t, "claude", config.LLM.DefaultProvider)
	assert.Equal(t, 2000, config.LLM.MaxTokens)
	assert.False(t, config.IsProduction())
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "base.toml")
	second := filepath.Join(dir, "local.toml")
	require.NoError(t, os.WriteFile(first, []byte(`
[paths]
input_dir = "urls"
output_dir = "results"

[llm]
default_provider = "gemini"
`), 0644))
	require.NoError(t, os.WriteFile(second, []byte(`
[paths]
output_dir = "local-results"
`), 0644))

	config, err := LoadFromFiles(first, "", second)
	require.NoError(t, err)

	assert.Equal(t, "urls", config.Paths.InputDir)
	assert.Equal(t, "local-results", config.Paths.OutputDir)
	assert.Equal(t, "gemini", config.LLM.DefaultProvider)
	assert.Equal(t, 3, config.Batch.RetryAttempts, "unset values keep defaults")
}

func TestLoadFromFiles_Errors(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[paths\n"), 0644))
	_, err = LoadFromFiles(bad)
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIRECRAWL_API_KEY", "fc-plain")
	t.Setenv("ANTHROPIC_API_KEY", "sk-plain")
	t.Setenv("SMARTCRAWL_CLAUDE_API_KEY", "sk-prefixed")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENV", "production")
	t.Setenv("BATCH_RETRY_COUNT", "5")
	t.Setenv("SMARTCRAWL_STORAGE_BADGER_ENABLED", "false")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "fc-plain", config.Firecrawl.APIKey)
	assert.Equal(t, "sk-prefixed", config.Claude.APIKey)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.IsProduction())
	assert.Equal(t, 5, config.Batch.RetryAttempts)
	assert.False(t, config.Storage.Badger.Enabled)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, "in", "", "warn")

	assert.Equal(t, "in", config.Paths.InputDir)
	assert.Equal(t, "output", config.Paths.OutputDir)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestResolveAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := ResolveAPIKey("firecrawl_api_key", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "FIRECRAWL_API_KEY not found in environment or config", err.Error())

	key, err := ResolveAPIKey("firecrawl_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	t.Setenv("GOOGLE_API_KEY", "from-env")
	key, err = ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 2*time.Minute, ParseDuration("2m", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("soon", time.Second))
}
