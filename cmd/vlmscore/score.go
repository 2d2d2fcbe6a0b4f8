package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"vlmscore/pkg/auth"
	"vlmscore/pkg/config"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/scorer"
	"vlmscore/pkg/ui"
	"vlmscore/pkg/ui/tui"
)

var (
	// Score command flags
	concurrent       int
	taskTimeout      time.Duration
	rateLimit        int
	profileName      string
	checkpointFile   string
	autoSaveInterval int
	forceRerun       bool
	dryRun           bool
	limit            int
	useTUI           bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <directory>",
	Short: "Score every image in a directory through the model endpoint",
	Long: `Score every supported image under a directory and write one JSON
result next to each image (photo.jpg scores into photo.json).

This command requires a scoring endpoint configured through one of:
  - Stored profile (use 'vlmscore auth login' to store)
  - Environment variables (VLMSCORE_API_ENDPOINT, VLMSCORE_API_TOKEN, VLMSCORE_MODEL)
  - Configuration file

Interrupted runs leave a checkpoint in the scored directory; running the
same command again resumes where the batch stopped. Images that already
have a result are skipped unless --force-rerun is given.`,
	Example: `  # Score a directory using default settings
  vlmscore score ./photos

  # Limit concurrency and set a per-image timeout
  vlmscore score ./photos --concurrent 5 --timeout 2m

  # Use a specific stored profile
  vlmscore score ./photos --profile production

  # Rescore everything, ignoring existing results and checkpoint
  vlmscore score ./photos --force-rerun

  # Watch progress in the full-screen dashboard
  vlmscore score ./photos --tui

  # See what would be scored without calling the API
  vlmscore score ./photos --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScore(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	// Local flags for score command
	scoreCmd.Flags().IntVar(&concurrent, "concurrent", 0, "maximum concurrent scoring requests (default from config)")
	scoreCmd.Flags().DurationVar(&taskTimeout, "timeout", 0, "per-image timeout, e.g. 90s or 5m (default from config)")
	scoreCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute (default from config)")
	scoreCmd.Flags().StringVarP(&profileName, "profile", "P", "", "use a specific stored endpoint profile")
	scoreCmd.Flags().StringVar(&checkpointFile, "checkpoint", "", "checkpoint file path (default: inside the scored directory)")
	scoreCmd.Flags().IntVar(&autoSaveInterval, "auto-save-interval", 0, "checkpoint auto-save after N completions (default from config)")
	scoreCmd.Flags().BoolVar(&forceRerun, "force-rerun", false, "rescore images that already have results")
	scoreCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be scored without calling the API")
	scoreCmd.Flags().IntVar(&limit, "limit", 0, "score at most N images this run")
	scoreCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal dashboard with real-time progress")

	// Also add these flags to root command so a bare 'vlmscore <dir>' works
	rootCmd.Flags().IntVar(&concurrent, "concurrent", 0, "maximum concurrent scoring requests (default from config)")
	rootCmd.Flags().DurationVar(&taskTimeout, "timeout", 0, "per-image timeout, e.g. 90s or 5m (default from config)")
	rootCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute (default from config)")
	rootCmd.Flags().StringVarP(&profileName, "profile", "P", "", "use a specific stored endpoint profile")
	rootCmd.Flags().BoolVar(&forceRerun, "force-rerun", false, "rescore images that already have results")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be scored without calling the API")
	rootCmd.Flags().IntVar(&limit, "limit", 0, "score at most N images this run")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal dashboard with real-time progress")
}

func runScore(cmd *cobra.Command, args []string) {
	dir := strings.TrimSpace(args[0])

	// Set quiet mode if log level is error
	if logLevel == "error" {
		ui.SetQuietMode(true)
	}

	// If TUI is enabled, we'll handle output differently
	if !useTUI {
		ui.PrintInfo("Target directory", dir)
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if taskTimeout > 0 {
		flags["timeout"] = taskTimeout
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if checkpointFile != "" {
		flags["checkpoint"] = checkpointFile
	}
	if autoSaveInterval > 0 {
		flags["auto-save-interval"] = autoSaveInterval
	}
	if !notifications {
		flags["notifications"] = false
	}
	// Pass log level to config
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if useTUI {
		flags["ui"] = "tui"
	}

	// Handle credentials. This happens before configuration loading so a
	// stored profile can satisfy the endpoint fields the config requires.
	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	// Peek at config file and environment: both outrank a stored default
	// profile, so only fall back to it when they carry no endpoint.
	_ = godotenv.Load(".env")
	probe := config.DefaultConfig()
	_ = probe.LoadFromFile(configFile)
	_ = probe.LoadFromEnv()

	var creds *auth.Credentials
	if profileName != "" {
		// Use specific profile
		creds, err = credManager.Retrieve(profileName)
		if err != nil {
			ui.PrintError("Profile not found", profileName)
			ui.PrintInfo("Available profiles", "Use 'vlmscore auth list' to see stored profiles")
			os.Exit(1)
		}
	} else if probe.API.Endpoint == "" || probe.API.Token == "" {
		// Try to get the default profile from the credential manager
		creds, err = credManager.RetrieveDefault()
		if err != nil {
			// No credentials found anywhere
			ui.PrintError("No API credentials found", "")
			fmt.Println("\nTo store an endpoint profile securely, run:")
			fmt.Println("  vlmscore auth login")
			fmt.Println("\nOr set environment variables:")
			fmt.Println("  export VLMSCORE_API_ENDPOINT=https://your-endpoint/v1/chat/completions")
			fmt.Println("  export VLMSCORE_API_TOKEN=your_api_key")
			fmt.Println("  export VLMSCORE_MODEL=your_model_name")
			os.Exit(1)
		}
	}

	// If we got a profile from the credential manager, inject it with
	// flag precedence
	if creds != nil {
		flags["endpoint"] = creds.Endpoint
		flags["token"] = creds.Token
		if creds.Model != "" {
			flags["model"] = creds.Model
		}
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("vlmscore starting")

	if creds != nil {
		if err := credManager.Touch(creds.Name); err != nil {
			logger.WithError(err).WithField("profile", creds.Name).Warn("Failed to update profile usage time")
		}
		logger.WithField("profile", creds.Name).Info("Using stored endpoint profile")
		if !useTUI {
			ui.PrintInfo("Using profile", creds.Name)
		}
	}

	logger.WithFields(map[string]interface{}{
		"directory": dir,
		"endpoint":  cfg.API.Endpoint,
		"model":     cfg.API.Model,
	}).Info("Starting scoring run")

	// Ctrl-C stops new submissions and lets in-flight scores resolve.
	// The checkpoint keeps completed work so the next run resumes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := scorer.Options{
		ForceRerun: forceRerun,
		DryRun:     dryRun,
		Limit:      limit,
	}

	// Create and run the scorer
	if useTUI || strings.EqualFold(cfg.UI.Mode, "tui") {
		runScoreWithTUI(ctx, cfg, dir, opts)
		return
	}

	// Plain terminal flow
	ui.PrintHighlight("\n[INITIATING BATCH SCORING]")

	s, err := scorer.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scorer", err.Error())
		os.Exit(1)
	}
	if strings.EqualFold(cfg.UI.Mode, "none") {
		s.SetDisplay(ui.NewNullDisplay())
	}

	err = s.ScoreDirectoryWithOptions(ctx, dir, opts)
	if err != nil {
		logger.WithError(err).WithField("directory", dir).Error("Scoring run failed")
		ui.PrintError("SCORING FAILED", err.Error())
		os.Exit(1)
	}

	logger.WithField("directory", dir).Info("Scoring run completed")
}

// runScoreWithTUI runs the batch under the full-screen dashboard. The
// scorer works in a goroutine while the dashboard owns the terminal.
func runScoreWithTUI(ctx context.Context, cfg *config.Config, dir string, opts scorer.Options) {
	// Plain prints would tear the alternate screen
	ui.SetQuietMode(true)

	terminal := tui.NewTUI(cfg.Pool.MaxConcurrent)

	// Run scorer in a goroutine
	scorerDone := make(chan error, 1)
	go func() {
		s, err := scorer.New(cfg)
		if err != nil {
			scorerDone <- err
			return
		}

		// Set the dashboard as the scorer's display
		s.SetDisplay(terminal)

		scorerDone <- s.ScoreDirectoryWithOptions(ctx, dir, opts)
	}()

	// Run the dashboard in its own goroutine
	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	// Wait for either to finish
	select {
	case err := <-scorerDone:
		terminal.Stop()
		<-tuiDone // Wait for the dashboard to finish
		if err != nil {
			logger.WithError(err).WithField("directory", dir).Error("Scoring run failed")
			os.Exit(1)
		}
	case err := <-tuiDone:
		if err != nil {
			logger.WithError(err).Error("Dashboard failed")
			os.Exit(1)
		}
	}

	logger.WithField("directory", dir).Info("Scoring run completed")
}

// Make score the default command when no subcommand is specified
func init() {
	// Treat 'vlmscore <dir>' as 'vlmscore score <dir>'
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// If the first argument is not a known command, treat it as a
			// directory to score. No need to transfer flags since the
			// root command shares the same variables.
			return scoreCmd.RunE(scoreCmd, args)
		}
		// Otherwise show help
		return cmd.Help()
	}

	// Set Args to allow arbitrary arguments
	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
