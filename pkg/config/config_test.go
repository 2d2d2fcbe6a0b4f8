package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test default values
	if config.Pool.MaxConcurrent != 50000 {
		t.Errorf("Expected default max concurrent to be 50000, got %d", config.Pool.MaxConcurrent)
	}

	if config.Pool.TaskTimeout.Duration() != 72*time.Hour {
		t.Errorf("Expected default task timeout to be 72h, got %s", config.Pool.TaskTimeout)
	}

	if config.Checkpoint.AutoSaveInterval != 100 {
		t.Errorf("Expected default auto-save interval to be 100, got %d", config.Checkpoint.AutoSaveInterval)
	}

	if config.API.MaxTokens != 16384 {
		t.Errorf("Expected default max tokens to be 16384, got %d", config.API.MaxTokens)
	}

	if config.Imaging.MaxDimension != 2000 {
		t.Errorf("Expected default max dimension to be 2000, got %d", config.Imaging.MaxDimension)
	}

	if config.Cost.InputPerMtok != 0.15 || config.Cost.OutputPerMtok != 1.50 {
		t.Errorf("Expected default token prices 0.15/1.50, got %v/%v",
			config.Cost.InputPerMtok, config.Cost.OutputPerMtok)
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Set test environment variables
	os.Setenv("VLMSCORE_API_ENDPOINT", "https://vlm.example.com/v1/chat/completions")
	os.Setenv("VLMSCORE_API_TOKEN", "test-token")
	os.Setenv("VLMSCORE_MODEL", "test-model")
	os.Setenv("VLMSCORE_MAX_CONCURRENT", "500")
	os.Setenv("VLMSCORE_REQUESTS_PER_MINUTE", "30")
	os.Setenv("VLMSCORE_OUTPUT_DIR", "/tmp/test-results")
	os.Setenv("VLMSCORE_NOTIFICATIONS_ENABLED", "false")
	os.Setenv("VLMSCORE_LOG_LEVEL", "debug")

	defer func() {
		// Clean up environment variables
		os.Unsetenv("VLMSCORE_API_ENDPOINT")
		os.Unsetenv("VLMSCORE_API_TOKEN")
		os.Unsetenv("VLMSCORE_MODEL")
		os.Unsetenv("VLMSCORE_MAX_CONCURRENT")
		os.Unsetenv("VLMSCORE_REQUESTS_PER_MINUTE")
		os.Unsetenv("VLMSCORE_OUTPUT_DIR")
		os.Unsetenv("VLMSCORE_NOTIFICATIONS_ENABLED")
		os.Unsetenv("VLMSCORE_LOG_LEVEL")
	}()

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	// Test loaded values
	if config.API.Endpoint != "https://vlm.example.com/v1/chat/completions" {
		t.Errorf("Expected endpoint from env, got %s", config.API.Endpoint)
	}

	if config.API.Token != "test-token" {
		t.Errorf("Expected token to be test-token, got %s", config.API.Token)
	}

	if config.API.Model != "test-model" {
		t.Errorf("Expected model to be test-model, got %s", config.API.Model)
	}

	if config.Pool.MaxConcurrent != 500 {
		t.Errorf("Expected max concurrent to be 500, got %d", config.Pool.MaxConcurrent)
	}

	if config.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute to be 30, got %d", config.RateLimit.RequestsPerMinute)
	}

	if config.Output.BaseDirectory != "/tmp/test-results" {
		t.Errorf("Expected output directory to be /tmp/test-results, got %s", config.Output.BaseDirectory)
	}

	if config.UI.Notifications != false {
		t.Errorf("Expected notifications to be disabled, got %v", config.UI.Notifications)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvAliases(t *testing.T) {
	// The legacy batch tooling variable names are honored as fallbacks
	os.Setenv("VLM_BATCH_API_ENDPOINT", "https://legacy.example.com/v1/chat/completions")
	os.Setenv("VLM_API_TOKEN", "legacy-token")
	os.Setenv("VLM_BATCH_MODEL_NAME", "legacy-model")
	os.Setenv("VLM_BATCH_CONCURRENT_LIMIT", "250")
	os.Setenv("VLM_MAX_TOKENS", "4096")
	os.Setenv("VLM_TEMPERATURE", "0.7")

	defer func() {
		os.Unsetenv("VLM_BATCH_API_ENDPOINT")
		os.Unsetenv("VLM_API_TOKEN")
		os.Unsetenv("VLM_BATCH_MODEL_NAME")
		os.Unsetenv("VLM_BATCH_CONCURRENT_LIMIT")
		os.Unsetenv("VLM_MAX_TOKENS")
		os.Unsetenv("VLM_TEMPERATURE")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.API.Endpoint != "https://legacy.example.com/v1/chat/completions" {
		t.Errorf("Expected legacy endpoint alias to apply, got %s", config.API.Endpoint)
	}
	if config.API.Token != "legacy-token" {
		t.Errorf("Expected legacy token alias to apply, got %s", config.API.Token)
	}
	if config.API.Model != "legacy-model" {
		t.Errorf("Expected legacy model alias to apply, got %s", config.API.Model)
	}
	if config.Pool.MaxConcurrent != 250 {
		t.Errorf("Expected legacy concurrent limit alias to apply, got %d", config.Pool.MaxConcurrent)
	}
	if config.API.MaxTokens != 4096 {
		t.Errorf("Expected legacy max tokens alias to apply, got %d", config.API.MaxTokens)
	}
	if config.API.Temperature != 0.7 {
		t.Errorf("Expected legacy temperature alias to apply, got %v", config.API.Temperature)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.API.Endpoint = "https://vlm.example.com/v1/chat/completions"
		c.API.Token = "test-token"
		c.API.Model = "test-model"
		return c
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "missing endpoint",
			mutate:    func(c *Config) { c.API.Endpoint = "" },
			wantError: true,
		},
		{
			name:      "missing model",
			mutate:    func(c *Config) { c.API.Model = "" },
			wantError: true,
		},
		{
			name:      "zero max concurrent",
			mutate:    func(c *Config) { c.Pool.MaxConcurrent = 0 },
			wantError: true,
		},
		{
			name:      "negative task timeout",
			mutate:    func(c *Config) { c.Pool.TaskTimeout = Duration(-time.Second) },
			wantError: true,
		},
		{
			name:      "zero auto-save interval",
			mutate:    func(c *Config) { c.Checkpoint.AutoSaveInterval = 0 },
			wantError: true,
		},
		{
			name:      "jpeg quality out of range",
			mutate:    func(c *Config) { c.Imaging.JPEGQuality = 101 },
			wantError: true,
		},
		{
			name:      "temperature out of range",
			mutate:    func(c *Config) { c.API.Temperature = 3.0 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
		{
			name:      "invalid ui mode",
			mutate:    func(c *Config) { c.UI.Mode = "fancy" },
			wantError: true,
		},
		{
			name:      "backoff multiplier below one",
			mutate:    func(c *Config) { c.Retry.BackoffMultiplier = 0.5 },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"endpoint":   "https://flag.example.com/v1/chat/completions",
		"token":      "flag-token",
		"model":      "flag-model",
		"output":     "/flag/output",
		"concurrent": 7,
		"timeout":    2 * time.Hour,
		"checkpoint": "/flag/checkpoint.json",
		"log-level":  "error",
		"ui":         "plain",
	}

	config.MergeCommandLineFlags(flags)

	// Test merged values
	if config.API.Endpoint != "https://flag.example.com/v1/chat/completions" {
		t.Errorf("Expected endpoint from flags, got %s", config.API.Endpoint)
	}

	if config.API.Token != "flag-token" {
		t.Errorf("Expected token to be flag-token, got %s", config.API.Token)
	}

	if config.API.Model != "flag-model" {
		t.Errorf("Expected model to be flag-model, got %s", config.API.Model)
	}

	if config.Output.BaseDirectory != "/flag/output" {
		t.Errorf("Expected output directory to be /flag/output, got %s", config.Output.BaseDirectory)
	}

	if config.Pool.MaxConcurrent != 7 {
		t.Errorf("Expected max concurrent to be 7, got %d", config.Pool.MaxConcurrent)
	}

	if config.Pool.TaskTimeout.Duration() != 2*time.Hour {
		t.Errorf("Expected task timeout to be 2h, got %s", config.Pool.TaskTimeout)
	}

	if config.Checkpoint.File != "/flag/checkpoint.json" {
		t.Errorf("Expected checkpoint file from flags, got %s", config.Checkpoint.File)
	}

	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}

	if config.UI.Mode != "plain" {
		t.Errorf("Expected ui mode to be plain, got %s", config.UI.Mode)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	// Create temporary directory for testing
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	// Create a config and save it
	config := DefaultConfig()
	config.API.Endpoint = "https://save.example.com/v1/chat/completions"
	config.API.Model = "save-test-model"
	config.Pool.MaxConcurrent = 8

	err := config.Save(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Load the saved config
	loadedConfig := DefaultConfig()
	err = loadedConfig.LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if loadedConfig.API.Endpoint != "https://save.example.com/v1/chat/completions" {
		t.Errorf("Expected loaded endpoint to round-trip, got %s", loadedConfig.API.Endpoint)
	}

	if loadedConfig.API.Model != "save-test-model" {
		t.Errorf("Expected loaded model to be save-test-model, got %s", loadedConfig.API.Model)
	}

	if loadedConfig.Pool.MaxConcurrent != 8 {
		t.Errorf("Expected loaded max concurrent to be 8, got %d", loadedConfig.Pool.MaxConcurrent)
	}
}
