package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the VLM batch scorer
type Config struct {
	// API endpoint and model settings
	API APIConfig `yaml:"api" json:"api"`

	// Task pool settings
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Checkpoint persistence settings
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Image discovery and resize settings
	Imaging ImagingConfig `yaml:"imaging" json:"imaging"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration for API calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Progress display preferences
	UI UIConfig `yaml:"ui" json:"ui"`

	// Token pricing for cost summaries
	Cost CostConfig `yaml:"cost" json:"cost"`
}

// APIConfig holds the VLM endpoint configuration
type APIConfig struct {
	Endpoint       string   `yaml:"endpoint" json:"endpoint"`
	Token          string   `yaml:"token" json:"token"`
	Model          string   `yaml:"model" json:"model"`
	MaxTokens      int      `yaml:"max_tokens" json:"max_tokens"`
	Temperature    float64  `yaml:"temperature" json:"temperature"`
	Detail         string   `yaml:"detail" json:"detail"`
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout"`
}

// PoolConfig holds task pool configuration
type PoolConfig struct {
	MaxConcurrent    int      `yaml:"max_concurrent" json:"max_concurrent"`
	TaskTimeout      Duration `yaml:"task_timeout" json:"task_timeout"`
	WaitPollInterval Duration `yaml:"wait_poll_interval" json:"wait_poll_interval"`
}

// CheckpointConfig holds checkpoint persistence configuration
type CheckpointConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	File             string `yaml:"file" json:"file"`
	AutoSaveInterval int    `yaml:"auto_save_interval" json:"auto_save_interval"`
}

// ImagingConfig holds image validation and resize configuration
type ImagingConfig struct {
	MaxDimension int   `yaml:"max_dimension" json:"max_dimension"`
	MinDimension int   `yaml:"min_dimension" json:"min_dimension"`
	JPEGQuality  int   `yaml:"jpeg_quality" json:"jpeg_quality"`
	MaxFileSize  int64 `yaml:"max_file_size" json:"max_file_size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry behavior for retryable API failures
type RetryConfig struct {
	MaxAttempts       int      `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay      Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay          Duration `yaml:"max_delay" json:"max_delay"`
	BackoffMultiplier float64  `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// OutputConfig holds result output configuration. Score sidecars always
// land next to their images; BaseDirectory receives run artifacts such as
// error logs.
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	SidecarSuffix     string `yaml:"sidecar_suffix" json:"sidecar_suffix"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// UIConfig holds progress display preferences
type UIConfig struct {
	Mode             string `yaml:"mode" json:"mode"`
	ProgressInterval int    `yaml:"progress_interval" json:"progress_interval"`
	Notifications    bool   `yaml:"notifications" json:"notifications"`
}

// CostConfig holds token pricing used by run summaries and reports
type CostConfig struct {
	InputPerMtok  float64 `yaml:"input_per_mtok" json:"input_per_mtok"`
	OutputPerMtok float64 `yaml:"output_per_mtok" json:"output_per_mtok"`
	Currency      string  `yaml:"currency" json:"currency"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:       "",
			Token:          "",
			Model:          "",
			MaxTokens:      16384,
			Temperature:    0.3,
			Detail:         "low",
			RequestTimeout: Duration(time.Hour),
		},
		Pool: PoolConfig{
			MaxConcurrent:    50000,
			TaskTimeout:      Duration(72 * time.Hour),
			WaitPollInterval: Duration(200 * time.Millisecond),
		},
		Checkpoint: CheckpointConfig{
			Enabled:          true,
			File:             "", // defaults to <dir>/.vlmscore_checkpoint.json at run time
			AutoSaveInterval: 100,
		},
		Imaging: ImagingConfig{
			MaxDimension: 2000,
			MinDimension: 100,
			JPEGQuality:  85,
			MaxFileSize:  0, // 0 means no limit
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
			BurstSize:         20,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialDelay:      Duration(2 * time.Second),
			MaxDelay:          Duration(60 * time.Second),
			BackoffMultiplier: 2.0,
		},
		Output: OutputConfig{
			BaseDirectory:     ".",
			SidecarSuffix:     ".json",
			OverwriteExisting: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
		UI: UIConfig{
			Mode:             "auto",
			ProgressInterval: 10,
			Notifications:    true,
		},
		Cost: CostConfig{
			InputPerMtok:  0.15,
			OutputPerMtok: 1.50,
			Currency:      "yuan",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. The
// VLM_BATCH_* and VLM_* names match the batch tooling this scorer
// replaces and keep existing deployments working.
func (c *Config) LoadFromEnv() error {
	// API endpoint settings
	if endpoint := firstEnv("VLMSCORE_API_ENDPOINT", "VLM_BATCH_API_ENDPOINT"); endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if token := firstEnv("VLMSCORE_API_TOKEN", "VLM_API_TOKEN"); token != "" {
		c.API.Token = token
	}
	if model := firstEnv("VLMSCORE_MODEL", "VLM_BATCH_MODEL_NAME"); model != "" {
		c.API.Model = model
	}
	if maxTokens := firstEnv("VLMSCORE_MAX_TOKENS", "VLM_MAX_TOKENS"); maxTokens != "" {
		var val int
		fmt.Sscanf(maxTokens, "%d", &val)
		if val > 0 {
			c.API.MaxTokens = val
		}
	}
	if temperature := firstEnv("VLMSCORE_TEMPERATURE", "VLM_TEMPERATURE"); temperature != "" {
		var val float64
		fmt.Sscanf(temperature, "%f", &val)
		if val >= 0 {
			c.API.Temperature = val
		}
	}

	// Pool settings
	if concurrent := firstEnv("VLMSCORE_MAX_CONCURRENT", "VLM_BATCH_CONCURRENT_LIMIT"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Pool.MaxConcurrent = val
		}
	}

	// Rate limiting
	if rpm := os.Getenv("VLMSCORE_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	// Output directory
	if outputDir := os.Getenv("VLMSCORE_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	// Checkpoint file
	if checkpointFile := os.Getenv("VLMSCORE_CHECKPOINT_FILE"); checkpointFile != "" {
		c.Checkpoint.File = checkpointFile
	}

	// Notifications
	if notifEnabled := os.Getenv("VLMSCORE_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.UI.Notifications = strings.ToLower(notifEnabled) == "true"
	}

	// Logging level
	if logLevel := os.Getenv("VLMSCORE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// firstEnv returns the first non-empty value among the named variables
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// LoadFromFile loads configuration from a YAML file
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

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".vlmscore.yaml",
		".vlmscore.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "vlmscore", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "vlmscore", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".vlmscore.yaml"),
		filepath.Join(os.Getenv("HOME"), ".vlmscore.yml"),
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

	// Validate API settings
	if c.API.Endpoint == "" {
		errs = append(errs, errors.New("API endpoint is required"))
	}
	if c.API.Model == "" {
		errs = append(errs, errors.New("model name is required"))
	}
	if c.API.MaxTokens <= 0 {
		errs = append(errs, errors.New("max tokens must be positive"))
	}
	if c.API.Temperature < 0 || c.API.Temperature > 2 {
		errs = append(errs, errors.New("temperature must be between 0 and 2"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Validate pool settings
	if c.Pool.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("max concurrent tasks must be positive"))
	}
	if c.Pool.TaskTimeout <= 0 {
		errs = append(errs, errors.New("task timeout must be positive"))
	}

	// Validate checkpoint settings
	if c.Checkpoint.AutoSaveInterval <= 0 {
		errs = append(errs, errors.New("checkpoint auto-save interval must be positive"))
	}

	// Validate imaging settings
	if c.Imaging.MaxDimension <= 0 {
		errs = append(errs, errors.New("max image dimension must be positive"))
	}
	if c.Imaging.MinDimension < 0 {
		errs = append(errs, errors.New("min image dimension cannot be negative"))
	}
	if c.Imaging.JPEGQuality < 1 || c.Imaging.JPEGQuality > 100 {
		errs = append(errs, errors.New("jpeg quality must be between 1 and 100"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}
	if c.Retry.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}

	// Validate output settings
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.SidecarSuffix == "" {
		errs = append(errs, errors.New("sidecar suffix is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	// Validate UI mode
	validUIModes := map[string]bool{
		"auto": true, "plain": true, "tui": true, "none": true,
	}
	if !validUIModes[strings.ToLower(c.UI.Mode)] {
		errs = append(errs, errors.New("invalid ui mode"))
	}

	// Validate cost settings
	if c.Cost.InputPerMtok < 0 || c.Cost.OutputPerMtok < 0 {
		errs = append(errs, errors.New("token prices cannot be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
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
	if endpoint, ok := flags["endpoint"].(string); ok && endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.API.Token = token
	}
	if model, ok := flags["model"].(string); ok && model != "" {
		c.API.Model = model
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Pool.MaxConcurrent = concurrent
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Pool.TaskTimeout = Duration(timeout)
	}
	if checkpointFile, ok := flags["checkpoint"].(string); ok && checkpointFile != "" {
		c.Checkpoint.File = checkpointFile
	}
	if interval, ok := flags["auto-save-interval"].(int); ok && interval > 0 {
		c.Checkpoint.AutoSaveInterval = interval
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if notifications, ok := flags["notifications"].(bool); ok {
		c.UI.Notifications = notifications
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if uiMode, ok := flags["ui"].(string); ok && uiMode != "" {
		c.UI.Mode = uiMode
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".vlmscore.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
