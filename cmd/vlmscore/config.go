package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"vlmscore/pkg/auth"
	"vlmscore/pkg/config"
	"vlmscore/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage vlmscore configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (VLMSCORE_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.vlmscore.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Environment variables
  - Configuration file
  - Default values

Sensitive values like API tokens will be masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility

Missing endpoint credentials are reported as warnings, not errors,
because a stored profile can provide them at run time.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = ".vlmscore.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	// Create example configuration
	exampleConfig := `# vlmscore configuration file
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with VLMSCORE_
# For example: VLMSCORE_API_ENDPOINT, VLMSCORE_API_TOKEN

# Scoring endpoint (OpenAI-style chat completions API)
api:
  # Endpoint URL (required unless a stored profile provides it)
  endpoint: "https://ark.cn-beijing.volces.com/api/v3/chat/completions"

  # API token (prefer 'vlmscore auth login' over putting it here)
  token: ""

  # Model name or endpoint id the provider routes by
  model: "doubao-1-5-vision-pro-32k"

  # Completion token budget per image
  max_tokens: 16384

  # Sampling temperature
  # Range: 0.0-2.0
  temperature: 0.3

  # Vision detail level: low or high
  # Low spends far fewer vision tokens per image
  detail: "low"

  # HTTP timeout for one scoring request
  request_timeout: "1h"

# Task pool configuration
pool:
  # Maximum images scored concurrently
  max_concurrent: 50000

  # Per-image timeout, counted from submission
  task_timeout: "72h"

  # Poll interval while waiting for the pool to drain
  wait_poll_interval: "200ms"

# Checkpoint persistence
checkpoint:
  # Record progress so interrupted runs resume
  enabled: true

  # Checkpoint file path
  # Leave empty to keep it inside the scored directory
  file: ""

  # Save after every N completed images
  auto_save_interval: 100

# Image discovery and resize
imaging:
  # Images larger than this on either edge are downscaled before a
  # resubmit when the endpoint rejects the original payload
  max_dimension: 2000

  # Images smaller than this on either edge are skipped
  min_dimension: 100

  # JPEG quality used when re-encoding downscaled images
  # Range: 1-100
  jpeg_quality: 85

  # Skip images over this many bytes (0 disables the check)
  max_file_size: 0

# Rate limiting
rate_limit:
  # Requests per minute against the endpoint
  requests_per_minute: 600

  # Requests allowed to burst above the steady rate
  burst_size: 20

# Retry configuration
retry:
  # Maximum attempts per request (0 disables retries)
  max_attempts: 3

  # Initial backoff delay
  initial_delay: "2s"

  # Maximum backoff delay
  max_delay: "60s"

  # Backoff multiplier
  backoff_multiplier: 2.0

# Output configuration
output:
  # Directory for run artifacts such as error logs
  # Score results always land next to their images
  base_directory: "."

  # Extension for result files written next to images
  sidecar_suffix: ".json"

  # Overwrite existing results without --force-rerun
  overwrite_existing: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""

  # Maximum log file size in MB
  max_size: 100

  # Maximum number of old log files to keep
  max_backups: 3

  # Maximum age of log files in days
  max_age: 7

  # Compress rotated log files
  compress: false

# Progress display
ui:
  # Display mode: auto, plain, tui, none
  mode: "auto"

  # Progress line update interval (plain mode), in completions
  progress_interval: 10

  # Desktop notifications when a batch finishes
  notifications: true

# Token pricing for cost summaries (per million tokens)
cost:
  input_per_mtok: 0.15
  output_per_mtok: 1.50

  # Currency label: yuan, usd, eur
  currency: "yuan"
`

	// Write configuration file
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file or run 'vlmscore auth login' for credentials")
	fmt.Println("2. Run 'vlmscore config validate' to check the configuration")
	fmt.Println("3. Start scoring with 'vlmscore score <directory>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// Load configuration without requiring endpoint credentials; a
	// stored profile can provide those at run time.
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		ui.PrintError("Failed to load environment variables", err.Error())
		os.Exit(1)
	}

	// Create a sanitized version for display
	displayCfg := *cfg

	// Mask sensitive values
	if displayCfg.API.Token != "" {
		displayCfg.API.Token = auth.MaskToken(displayCfg.API.Token)
	}

	// Convert to YAML for display
	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (VLMSCORE_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Check if config file is specified
	path := configFile
	if path == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			".vlmscore.yaml",
			".vlmscore.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "vlmscore", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "vlmscore", "config.yml"),
			filepath.Join(os.Getenv("HOME"), ".vlmscore.yaml"),
			filepath.Join(os.Getenv("HOME"), ".vlmscore.yml"),
		}

		for _, p := range possiblePaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}

		if path == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", path)

	// Load the file on top of defaults; a parse failure is fatal
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	// Collect additional validation findings
	warnings := []string{}
	errs := []string{}

	// Endpoint credentials may come from a stored profile instead
	if cfg.API.Endpoint == "" {
		warnings = append(warnings, "API endpoint not configured (a stored profile can provide it)")
	}
	if cfg.API.Token == "" {
		warnings = append(warnings, "API token not configured (a stored profile can provide it)")
	}
	if cfg.API.Model == "" {
		warnings = append(warnings, "model name not configured (a stored profile can provide it)")
	}

	// Check paths
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	// Check value ranges
	if cfg.Pool.MaxConcurrent < 1 {
		errs = append(errs, "pool.max_concurrent must be at least 1")
	}
	if cfg.Pool.TaskTimeout <= 0 {
		errs = append(errs, "pool.task_timeout must be positive")
	}
	if cfg.Checkpoint.AutoSaveInterval < 1 {
		errs = append(errs, "checkpoint.auto_save_interval must be at least 1")
	}
	if cfg.RateLimit.RequestsPerMinute < 1 {
		errs = append(errs, "rate_limit.requests_per_minute must be at least 1")
	}
	if cfg.Retry.MaxAttempts < 0 || cfg.Retry.MaxAttempts > 10 {
		errs = append(errs, "retry.max_attempts must be between 0 and 10")
	}
	if cfg.Imaging.JPEGQuality < 1 || cfg.Imaging.JPEGQuality > 100 {
		errs = append(errs, "imaging.jpeg_quality must be between 1 and 100")
	}
	if cfg.API.Temperature < 0 || cfg.API.Temperature > 2 {
		errs = append(errs, "api.temperature must be between 0 and 2")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of debug, info, warn, error")
	}

	validUIModes := map[string]bool{"auto": true, "plain": true, "tui": true, "none": true}
	if !validUIModes[strings.ToLower(cfg.UI.Mode)] {
		errs = append(errs, "ui.mode must be one of auto, plain, tui, none")
	}

	// Display results
	if len(errs) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, e := range errs {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Endpoint: %s\n", valueOrUnset(cfg.API.Endpoint))
	fmt.Printf("  Model: %s\n", valueOrUnset(cfg.API.Model))
	fmt.Printf("  Concurrent limit: %d\n", cfg.Pool.MaxConcurrent)
	fmt.Printf("  Task timeout: %s\n", cfg.Pool.TaskTimeout)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Checkpoint auto-save: every %d images\n", cfg.Checkpoint.AutoSaveInterval)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
