package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the Parler v1 REST API root
	DefaultBaseURL = "https://api.parler.com/v1"

	// DefaultRetryDelay is the pause before retrying a 429/502, in seconds
	DefaultRetryDelay = 2.0

	// DefaultMaxReconnects is the number of consecutive transient failures tolerated
	DefaultMaxReconnects = 20
)

// Config holds all configuration options for the Parler client
type Config struct {
	// Parler session credentials and endpoint
	Parler ParlerConfig `yaml:"parler" toml:"parler" json:"parler"`

	// Retry and transport behaviour
	Connection ConnectionConfig `yaml:"connection" toml:"connection" json:"connection"`

	// Client-side request limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`

	// Console logging
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`

	// Optional file log sink
	LogToFile LogToFileConfig `yaml:"log_to_file" toml:"log_to_file" json:"log_to_file"`

	// Pagination cursor store used by the CLI
	Checkpoint CheckpointConfig `yaml:"checkpoint" toml:"checkpoint" json:"checkpoint"`
}

// ParlerConfig holds the session tokens and API location
type ParlerConfig struct {
	JST       string `yaml:"jst" toml:"jst" json:"jst"`
	MST       string `yaml:"mst" toml:"mst" json:"mst"`
	BaseURL   string `yaml:"base_url" toml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Debug     bool   `yaml:"debug" toml:"debug" json:"debug"`
}

// ConnectionConfig holds retry configuration
type ConnectionConfig struct {
	// RetryDelay is the number of seconds to wait before retrying a transient failure
	RetryDelay float64 `yaml:"retry_delay" toml:"retry_delay" json:"retry_delay"`
	// MaxReconnects is the abort threshold for consecutive transient failures
	MaxReconnects int `yaml:"max_reconnects" toml:"max_reconnects" json:"max_reconnects"`
	// Backoff selects the delay strategy: constant, linear or exponential
	Backoff string `yaml:"backoff" toml:"backoff" json:"backoff"`
	// Timeout bounds a single HTTP exchange; zero leaves it to the transport
	Timeout time.Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute"`
	// Algorithm is sliding_window (default) or token_bucket
	Algorithm string `yaml:"algorithm" toml:"algorithm" json:"algorithm"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// LogToFileConfig attaches a file sink to the logger when Enabled is set
type LogToFileConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	LogFile string `yaml:"log_file" toml:"log_file" json:"log_file"`
}

// CheckpointConfig holds the cursor database location
type CheckpointConfig struct {
	Path string `yaml:"path" toml:"path" json:"path"`
}

// RetryDelayDuration converts the configured seconds into a time.Duration.
func (c ConnectionConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Parler: ParlerConfig{
			BaseURL: DefaultBaseURL,
		},
		Connection: ConnectionConfig{
			RetryDelay:    DefaultRetryDelay,
			MaxReconnects: DefaultMaxReconnects,
			Backoff:       "constant",
		},
		Logging: LoggingConfig{
			Level: "error",
		},
		LogToFile: LogToFileConfig{
			Enabled: false,
			LogFile: "parler.log",
		},
		Checkpoint: CheckpointConfig{
			Path: filepath.Join(dataDir(), "cursors.db"),
		},
	}
}

// envOverrides lists the PARLER_* variables understood by LoadFromEnv.
type envOverrides struct {
	JST               string   `envconfig:"JST"`
	MST               string   `envconfig:"MST"`
	BaseURL           string   `envconfig:"BASE_URL"`
	UserAgent         string   `envconfig:"USER_AGENT"`
	Debug             bool     `envconfig:"DEBUG"`
	RetryDelay        *float64 `envconfig:"RETRY_DELAY"`
	MaxReconnects     int      `envconfig:"MAX_RECONNECTS"`
	Backoff           string   `envconfig:"BACKOFF"`
	RequestsPerMinute int      `envconfig:"REQUESTS_PER_MINUTE"`
	RateLimitAlgo     string   `envconfig:"RATE_LIMIT_ALGORITHM"`
	LogLevel          string   `envconfig:"LOG_LEVEL"`
	LogFile           string   `envconfig:"LOG_FILE"`
	Checkpoint        string   `envconfig:"CHECKPOINT"`
}

// LoadFromEnv loads configuration from PARLER_* environment variables
func (c *Config) LoadFromEnv() error {
	var env envOverrides
	if err := envconfig.Process("parler", &env); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if env.JST != "" {
		c.Parler.JST = env.JST
	}
	if env.MST != "" {
		c.Parler.MST = env.MST
	}
	if env.BaseURL != "" {
		c.Parler.BaseURL = env.BaseURL
	}
	if env.UserAgent != "" {
		c.Parler.UserAgent = env.UserAgent
	}
	if env.Debug {
		c.Parler.Debug = true
	}
	// Zero is a valid delay, so only an unset variable is skipped.
	if env.RetryDelay != nil {
		c.Connection.RetryDelay = *env.RetryDelay
	}
	if env.MaxReconnects > 0 {
		c.Connection.MaxReconnects = env.MaxReconnects
	}
	if env.Backoff != "" {
		c.Connection.Backoff = env.Backoff
	}
	if env.RequestsPerMinute > 0 {
		c.RateLimit.RequestsPerMinute = env.RequestsPerMinute
	}
	if env.RateLimitAlgo != "" {
		c.RateLimit.Algorithm = env.RateLimitAlgo
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	// Naming a log file implies the sink should be attached.
	if env.LogFile != "" {
		c.LogToFile.Enabled = true
		c.LogToFile.LogFile = env.LogFile
	}
	if env.Checkpoint != "" {
		c.Checkpoint.Path = env.Checkpoint
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".parler.yaml",
		".parler.yml",
		".parler.toml",
		filepath.Join(home, ".config", "parler", "config.yaml"),
		filepath.Join(home, ".config", "parler", "config.yml"),
		filepath.Join(home, ".config", "parler", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Parler.JST == "" {
		errs = append(errs, errors.New("jst token is required"))
	}
	if c.Parler.MST == "" {
		errs = append(errs, errors.New("mst token is required"))
	}
	if c.Parler.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}

	if c.Connection.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Connection.MaxReconnects <= 0 {
		errs = append(errs, errors.New("max reconnects must be positive"))
	}
	validBackoff := map[string]bool{
		"": true, "constant": true, "linear": true, "exponential": true,
	}
	if !validBackoff[strings.ToLower(c.Connection.Backoff)] {
		errs = append(errs, fmt.Errorf("invalid backoff strategy: %s", c.Connection.Backoff))
	}
	if c.Connection.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	validAlgorithms := map[string]bool{
		"": true, "sliding_window": true, "token_bucket": true,
	}
	if !validAlgorithms[strings.ToLower(c.RateLimit.Algorithm)] {
		errs = append(errs, fmt.Errorf("invalid rate limit algorithm: %s", c.RateLimit.Algorithm))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	if c.LogToFile.Enabled && c.LogToFile.LogFile == "" {
		errs = append(errs, errors.New("log file is required when file logging is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file; the extension picks the format
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if jst, ok := flags["jst"].(string); ok && jst != "" {
		c.Parler.JST = jst
	}
	if mst, ok := flags["mst"].(string); ok && mst != "" {
		c.Parler.MST = mst
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Parler.BaseURL = baseURL
	}
	if debug, ok := flags["debug"].(bool); ok && debug {
		c.Parler.Debug = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if retryDelay, ok := flags["retry-delay"].(float64); ok && retryDelay >= 0 {
		c.Connection.RetryDelay = retryDelay
	}
	if maxReconnects, ok := flags["max-reconnects"].(int); ok && maxReconnects > 0 {
		c.Connection.MaxReconnects = maxReconnects
	}
}

// Load loads configuration from all sources with proper precedence and
// validates the result.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Resolve(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Resolve merges all sources like Load but leaves validation to the caller,
// so tokens can still be filled in from a credential store.
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".parler.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	return config, nil
}

// dataDir returns the directory for state files such as the cursor store
func dataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "parler")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "parler")
	}
	return "."
}
