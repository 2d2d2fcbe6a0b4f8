package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "test_config.yaml")

		// Create test config
		testConfig := `
api:
  endpoint: https://file.example.com/v1/chat/completions
  token: file_token
  model: file-model
  max_tokens: 8192
  temperature: 0.5
  detail: low
  request_timeout: 30m

pool:
  max_concurrent: 1000
  task_timeout: 48h
  wait_poll_interval: 100ms

checkpoint:
  enabled: true
  file: /file/checkpoint.json
  auto_save_interval: 50

imaging:
  max_dimension: 1500
  min_dimension: 64
  jpeg_quality: 90
  max_file_size: 10485760

rate_limit:
  requests_per_minute: 120
  burst_size: 10

retry:
  max_attempts: 5
  initial_delay: 500ms
  max_delay: 1m30s
  backoff_multiplier: 1.5

output:
  base_directory: /file/output
  sidecar_suffix: .json
  overwrite_existing: true

logging:
  level: warn
  file: /var/log/vlmscore.log
  max_size: 50
  max_backups: 5
  max_age: 14
  compress: true

ui:
  mode: plain
  progress_interval: 20
  notifications: false

cost:
  input_per_mtok: 0.2
  output_per_mtok: 2.0
  currency: yuan
`

		err := os.WriteFile(configPath, []byte(testConfig), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		err = cfg.LoadFromFile(configPath)
		require.NoError(t, err)

		// Verify all values were loaded
		assert.Equal(t, "https://file.example.com/v1/chat/completions", cfg.API.Endpoint)
		assert.Equal(t, "file_token", cfg.API.Token)
		assert.Equal(t, "file-model", cfg.API.Model)
		assert.Equal(t, 8192, cfg.API.MaxTokens)
		assert.Equal(t, 0.5, cfg.API.Temperature)
		assert.Equal(t, 30*time.Minute, cfg.API.RequestTimeout.Duration())

		assert.Equal(t, 1000, cfg.Pool.MaxConcurrent)
		assert.Equal(t, 48*time.Hour, cfg.Pool.TaskTimeout.Duration())
		assert.Equal(t, 100*time.Millisecond, cfg.Pool.WaitPollInterval.Duration())

		assert.True(t, cfg.Checkpoint.Enabled)
		assert.Equal(t, "/file/checkpoint.json", cfg.Checkpoint.File)
		assert.Equal(t, 50, cfg.Checkpoint.AutoSaveInterval)

		assert.Equal(t, 1500, cfg.Imaging.MaxDimension)
		assert.Equal(t, 64, cfg.Imaging.MinDimension)
		assert.Equal(t, 90, cfg.Imaging.JPEGQuality)
		assert.Equal(t, int64(10485760), cfg.Imaging.MaxFileSize)

		assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
		assert.Equal(t, 10, cfg.RateLimit.BurstSize)

		assert.Equal(t, 5, cfg.Retry.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay.Duration())
		assert.Equal(t, 90*time.Second, cfg.Retry.MaxDelay.Duration())
		assert.Equal(t, 1.5, cfg.Retry.BackoffMultiplier)

		assert.Equal(t, "/file/output", cfg.Output.BaseDirectory)
		assert.Equal(t, ".json", cfg.Output.SidecarSuffix)
		assert.True(t, cfg.Output.OverwriteExisting)

		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "/var/log/vlmscore.log", cfg.Logging.File)
		assert.Equal(t, 50, cfg.Logging.MaxSize)
		assert.Equal(t, 5, cfg.Logging.MaxBackups)
		assert.Equal(t, 14, cfg.Logging.MaxAge)
		assert.True(t, cfg.Logging.Compress)

		assert.Equal(t, "plain", cfg.UI.Mode)
		assert.Equal(t, 20, cfg.UI.ProgressInterval)
		assert.False(t, cfg.UI.Notifications)

		assert.Equal(t, 0.2, cfg.Cost.InputPerMtok)
		assert.Equal(t, 2.0, cfg.Cost.OutputPerMtok)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "invalid.yaml")

		invalidYAML := `
api:
  endpoint: [this is invalid
`
		err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		err = cfg.LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("non-existent file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile("/non/existent/path/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("empty path searches default locations", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile("")
		// Should not error, just returns nil if no config found
		assert.NoError(t, err)
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		err := os.WriteFile(".vlmscore.yaml", []byte("logging:\n  level: debug\n"), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		found := cfg.findConfigFile()
		assert.Equal(t, ".vlmscore.yaml", found)
	})

	t.Run("no config file found", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		oldHome := os.Getenv("HOME")
		os.Setenv("HOME", tempDir)
		defer os.Setenv("HOME", oldHome)

		cfg := DefaultConfig()
		found := cfg.findConfigFile()
		assert.Equal(t, "", found)
	})
}

func TestSave(t *testing.T) {
	t.Run("save to new file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "saved_config.yaml")

		cfg := DefaultConfig()
		cfg.API.Endpoint = "https://save.example.com/v1/chat/completions"
		cfg.API.Model = "save-model"

		err := cfg.Save(configPath)
		require.NoError(t, err)

		// Verify file exists
		_, err = os.Stat(configPath)
		assert.NoError(t, err)

		// Load and verify
		loadedCfg := DefaultConfig()
		err = loadedCfg.LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, cfg.API.Endpoint, loadedCfg.API.Endpoint)
		assert.Equal(t, cfg.API.Model, loadedCfg.API.Model)
	})

	t.Run("creates directory if needed", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "subdir", "config.yaml")

		cfg := DefaultConfig()
		err := cfg.Save(configPath)
		require.NoError(t, err)

		// Verify directory was created
		_, err = os.Stat(filepath.Dir(configPath))
		assert.NoError(t, err)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")

		// Create initial file
		cfg1 := DefaultConfig()
		cfg1.API.Model = "first"
		err := cfg1.Save(configPath)
		require.NoError(t, err)

		// Overwrite with new config
		cfg2 := DefaultConfig()
		cfg2.API.Model = "second"
		err = cfg2.Save(configPath)
		require.NoError(t, err)

		// Load and verify
		loadedCfg := DefaultConfig()
		err = loadedCfg.LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "second", loadedCfg.API.Model)
	})
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		tempDir := t.TempDir()

		// Create config file
		configPath := filepath.Join(tempDir, "config.yaml")
		configContent := `
api:
  endpoint: https://file.example.com/v1/chat/completions
  token: file_token
  model: file-model
output:
  base_directory: /file/output
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		// Set environment variables
		os.Setenv("VLMSCORE_API_TOKEN", "env_token")
		os.Setenv("VLMSCORE_OUTPUT_DIR", "/env/output")
		defer os.Unsetenv("VLMSCORE_API_TOKEN")
		defer os.Unsetenv("VLMSCORE_OUTPUT_DIR")

		// Command line flags
		flags := map[string]interface{}{
			"token": "flag_token",
		}

		cfg, err := Load(configPath, flags)
		require.NoError(t, err)

		// Verify precedence: flags > env > file > defaults
		assert.Equal(t, "flag_token", cfg.API.Token)              // From flags
		assert.Equal(t, "file-model", cfg.API.Model)              // From file (no env or flag)
		assert.Equal(t, "/env/output", cfg.Output.BaseDirectory)  // From env (no flag)
	})

	t.Run("validation failure", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		// No endpoint or model from any source
		cfg, err := Load("", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)

		err := os.Chdir(tempDir)
		require.NoError(t, err)

		// Create .env file
		envContent := `VLM_BATCH_API_ENDPOINT=https://dotenv.example.com/v1/chat/completions
VLM_API_TOKEN=dotenv_token
VLM_BATCH_MODEL_NAME=dotenv-model`
		err = os.WriteFile(".env", []byte(envContent), 0644)
		require.NoError(t, err)

		// Clear any existing env vars
		os.Unsetenv("VLM_BATCH_API_ENDPOINT")
		os.Unsetenv("VLM_API_TOKEN")
		os.Unsetenv("VLM_BATCH_MODEL_NAME")
		defer func() {
			os.Unsetenv("VLM_BATCH_API_ENDPOINT")
			os.Unsetenv("VLM_API_TOKEN")
			os.Unsetenv("VLM_BATCH_MODEL_NAME")
		}()

		cfg, err := Load("", nil)
		require.NoError(t, err)

		assert.Equal(t, "https://dotenv.example.com/v1/chat/completions", cfg.API.Endpoint)
		assert.Equal(t, "dotenv_token", cfg.API.Token)
		assert.Equal(t, "dotenv-model", cfg.API.Model)
	})
}

func TestConfigSerialization(t *testing.T) {
	t.Run("yaml round trip", func(t *testing.T) {
		original := DefaultConfig()
		original.API.Endpoint = "https://roundtrip.example.com/v1/chat/completions"
		original.API.Model = "roundtrip-model"
		original.RateLimit.RequestsPerMinute = 45
		original.Pool.MaxConcurrent = 8
		original.Pool.TaskTimeout = Duration(36 * time.Hour)

		// Marshal to YAML
		data, err := yaml.Marshal(original)
		require.NoError(t, err)

		// Unmarshal back
		var loaded Config
		err = yaml.Unmarshal(data, &loaded)
		require.NoError(t, err)

		// Compare key fields
		assert.Equal(t, original.API.Endpoint, loaded.API.Endpoint)
		assert.Equal(t, original.API.Model, loaded.API.Model)
		assert.Equal(t, original.RateLimit.RequestsPerMinute, loaded.RateLimit.RequestsPerMinute)
		assert.Equal(t, original.Pool.MaxConcurrent, loaded.Pool.MaxConcurrent)
		assert.Equal(t, original.Pool.TaskTimeout, loaded.Pool.TaskTimeout)
	})
}

func TestDurationParsing(t *testing.T) {
	t.Run("parse duration from yaml", func(t *testing.T) {
		yamlContent := `
api:
  request_timeout: 45s
pool:
  task_timeout: 72h
retry:
  initial_delay: 500ms
  max_delay: 1m30s
`
		var cfg Config
		err := yaml.Unmarshal([]byte(yamlContent), &cfg)
		require.NoError(t, err)

		assert.Equal(t, 45*time.Second, cfg.API.RequestTimeout.Duration())
		assert.Equal(t, 72*time.Hour, cfg.Pool.TaskTimeout.Duration())
		assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialDelay.Duration())
		assert.Equal(t, 90*time.Second, cfg.Retry.MaxDelay.Duration())
	})

	t.Run("integer nanoseconds accepted", func(t *testing.T) {
		var d Duration
		err := yaml.Unmarshal([]byte("1000000000"), &d)
		require.NoError(t, err)
		assert.Equal(t, time.Second, d.Duration())
	})

	t.Run("invalid duration rejected", func(t *testing.T) {
		var d Duration
		err := yaml.Unmarshal([]byte(`"not-a-duration"`), &d)
		assert.Error(t, err)
	})
}

// Benchmark tests
func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}

func BenchmarkValidate(b *testing.B) {
	cfg := DefaultConfig()
	cfg.API.Endpoint = "https://bench.example.com/v1/chat/completions"
	cfg.API.Model = "bench-model"

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

func BenchmarkLoadFromEnv(b *testing.B) {
	os.Setenv("VLMSCORE_API_TOKEN", "bench_token")
	os.Setenv("VLMSCORE_MODEL", "bench-model")
	defer os.Unsetenv("VLMSCORE_API_TOKEN")
	defer os.Unsetenv("VLMSCORE_MODEL")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cfg := DefaultConfig()
		_ = cfg.LoadFromEnv()
	}
}

func BenchmarkSaveAndLoad(b *testing.B) {
	tempDir := b.TempDir()
	configPath := filepath.Join(tempDir, "bench_config.yaml")

	cfg := DefaultConfig()
	cfg.API.Endpoint = "https://bench.example.com/v1/chat/completions"
	cfg.API.Model = "bench-model"

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = cfg.Save(configPath)
		loadedCfg := DefaultConfig()
		_ = loadedCfg.LoadFromFile(configPath)
	}
}
