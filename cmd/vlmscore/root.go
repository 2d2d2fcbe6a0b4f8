package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"vlmscore/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	debugMode     bool
	quiet         bool
	notifications bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vlmscore",
	Short: "Batch image quality scoring through a vision language model",
	Long: `vlmscore scores directories of images through a vision language model
endpoint and writes one JSON result next to each image.

Features:
  - Bounded concurrent scoring with per-task timeouts
  - Checkpointed progress: interrupted batches resume where they stopped
  - Per-image quality verdicts: score, AI detection, watermark detection
  - Rate limiting and automatic retry with exponential backoff
  - Token cost accounting per run
  - Secure API credential storage using the system keychain

A scoring endpoint must speak the OpenAI-style chat completions API and
accept image content parts. Store one with 'vlmscore auth login' or set
VLMSCORE_API_ENDPOINT, VLMSCORE_API_TOKEN and VLMSCORE_MODEL.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			logLevel = "debug"
		}

		// Set quiet mode if requested or log level is error
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		// Don't show the banner for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .vlmscore.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "shorthand for --log-level debug")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")

	// Version template
	rootCmd.SetVersionTemplate(`vlmscore {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
