package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, config.Parler.BaseURL)
	assert.Equal(t, 2.0, config.Connection.RetryDelay)
	assert.Equal(t, 20, config.Connection.MaxReconnects)
	assert.Equal(t, "constant", config.Connection.Backoff)
	assert.Equal(t, 2*time.Second, config.Connection.RetryDelayDuration())
	assert.Equal(t, "error", config.Logging.Level)
	assert.False(t, config.LogToFile.Enabled)
	assert.Zero(t, config.RateLimit.RequestsPerMinute)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PARLER_JST", "env-jst")
	t.Setenv("PARLER_MST", "env-mst")
	t.Setenv("PARLER_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("PARLER_RETRY_DELAY", "0.5")
	t.Setenv("PARLER_MAX_RECONNECTS", "7")
	t.Setenv("PARLER_REQUESTS_PER_MINUTE", "30")
	t.Setenv("PARLER_LOG_LEVEL", "debug")
	t.Setenv("PARLER_LOG_FILE", "/tmp/parler-test.log")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "env-jst", config.Parler.JST)
	assert.Equal(t, "env-mst", config.Parler.MST)
	assert.Equal(t, "http://localhost:9999/v1", config.Parler.BaseURL)
	assert.Equal(t, 500*time.Millisecond, config.Connection.RetryDelayDuration())
	assert.Equal(t, 7, config.Connection.MaxReconnects)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.LogToFile.Enabled)
	assert.Equal(t, "/tmp/parler-test.log", config.LogToFile.LogFile)
}

func TestZeroRetryDelayIsHonoured(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())
	assert.Equal(t, DefaultRetryDelay, config.Connection.RetryDelay, "unset variable keeps the default")

	t.Setenv("PARLER_RETRY_DELAY", "0")
	require.NoError(t, config.LoadFromEnv())
	assert.Zero(t, config.Connection.RetryDelay)

	config = DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{"retry-delay": 0.0})
	assert.Zero(t, config.Connection.RetryDelay)

	config = DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{})
	assert.Equal(t, DefaultRetryDelay, config.Connection.RetryDelay)
}

func TestRateLimitAlgorithm(t *testing.T) {
	t.Setenv("PARLER_RATE_LIMIT_ALGORITHM", "token_bucket")

	config := DefaultConfig()
	config.Parler.JST = "jst"
	config.Parler.MST = "mst"
	require.NoError(t, config.LoadFromEnv())
	assert.Equal(t, "token_bucket", config.RateLimit.Algorithm)
	assert.NoError(t, config.Validate())

	config.RateLimit.Algorithm = "leaky_bucket"
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rate limit algorithm")
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("PARLER_MAX_RECONNECTS", "many")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
parler:
  jst: file-jst
  mst: file-mst
connection:
  retry_delay: 5
  max_reconnects: 3
  backoff: exponential
  timeout: 15s
log_to_file:
  enabled: true
  log_file: /var/log/parler.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "file-jst", config.Parler.JST)
	assert.Equal(t, "file-mst", config.Parler.MST)
	assert.Equal(t, 5*time.Second, config.Connection.RetryDelayDuration())
	assert.Equal(t, 3, config.Connection.MaxReconnects)
	assert.Equal(t, "exponential", config.Connection.Backoff)
	assert.Equal(t, 15*time.Second, config.Connection.Timeout)
	assert.True(t, config.LogToFile.Enabled)
	assert.Equal(t, "/var/log/parler.log", config.LogToFile.LogFile)

	// Untouched sections keep their defaults
	assert.Equal(t, DefaultBaseURL, config.Parler.BaseURL)
	assert.Equal(t, "error", config.Logging.Level)
}

func TestLoadFromFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[parler]
jst = "file-jst"
mst = "file-mst"

[connection]
retry_delay = 1.5
max_reconnects = 4

[log_to_file]
enabled = false
log_file = "ignored.log"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "file-jst", config.Parler.JST)
	assert.Equal(t, 1500*time.Millisecond, config.Connection.RetryDelayDuration())
	assert.Equal(t, 4, config.Connection.MaxReconnects)
	assert.False(t, config.LogToFile.Enabled)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()

	err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("parler: [unterminated"), 0600))
	assert.Error(t, config.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Parler.JST = "jst"
		c.Parler.MST = "mst"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing jst", func(c *Config) { c.Parler.JST = "" }, "jst token is required"},
		{"missing mst", func(c *Config) { c.Parler.MST = "" }, "mst token is required"},
		{"negative delay", func(c *Config) { c.Connection.RetryDelay = -1 }, "retry delay cannot be negative"},
		{"zero reconnects", func(c *Config) { c.Connection.MaxReconnects = 0 }, "max reconnects must be positive"},
		{"unknown backoff", func(c *Config) { c.Connection.Backoff = "fibonacci" }, "invalid backoff strategy"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"file sink without path", func(c *Config) {
			c.LogToFile.Enabled = true
			c.LogToFile.LogFile = ""
		}, "log file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	c := DefaultConfig()
	c.Connection.MaxReconnects = -1

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jst token is required")
	assert.Contains(t, err.Error(), "mst token is required")
	assert.Contains(t, err.Error(), "max reconnects must be positive")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			original := DefaultConfig()
			original.Parler.JST = "saved-jst"
			original.Parler.MST = "saved-mst"
			original.Connection.MaxReconnects = 9

			path := filepath.Join(dir, "nested", name)
			require.NoError(t, original.Save(path))

			loaded := DefaultConfig()
			require.NoError(t, loaded.LoadFromFile(path))
			assert.Equal(t, "saved-jst", loaded.Parler.JST)
			assert.Equal(t, "saved-mst", loaded.Parler.MST)
			assert.Equal(t, 9, loaded.Connection.MaxReconnects)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "config.yaml")
	content := `
parler:
  jst: file-jst
  mst: file-mst
connection:
  max_reconnects: 3
logging:
  level: info
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("PARLER_MST", "env-mst")
	t.Setenv("PARLER_LOG_LEVEL", "warn")

	config, err := Load(path, map[string]interface{}{
		"log-level": "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "file-jst", config.Parler.JST)
	assert.Equal(t, "env-mst", config.Parler.MST)
	assert.Equal(t, 3, config.Connection.MaxReconnects)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFailsValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PARLER_JST", "")
	t.Setenv("PARLER_MST", "")

	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"), nil)
	assert.Error(t, err)

	_, err = Load("", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestResolveSkipsValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PARLER_JST", "")
	t.Setenv("PARLER_MST", "")

	config, err := Resolve("", map[string]interface{}{"max-reconnects": 5})
	require.NoError(t, err)

	assert.Empty(t, config.Parler.JST)
	assert.Equal(t, 5, config.Connection.MaxReconnects)
	assert.Error(t, config.Validate())

	config.Parler.JST = "stored-jst"
	config.Parler.MST = "stored-mst"
	assert.NoError(t, config.Validate())
}
