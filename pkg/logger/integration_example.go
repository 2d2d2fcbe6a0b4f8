package logger

// This file shows how to integrate the logger into the main application

/*
Example integration in main.go:

package main

import (
	"flag"
	"os"

	"vlmscore/pkg/config"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/scorer"
	"vlmscore/pkg/ui"
)

func main() {
	flag.Parse()

	// ... get target directory and flags ...

	// Load configuration
	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize the logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	// Now you can use the logger throughout the application
	logger.Info("VLM batch scorer starting")
	logger.WithField("dir", targetDir).Info("Scanning for images")

	// Log configuration (be careful not to log sensitive data)
	logger.WithFields(map[string]interface{}{
		"output_dir": cfg.Output.BaseDirectory,
		"workers":    cfg.Pool.MaxConcurrent,
		"rate_limit": cfg.RateLimit.RequestsPerMinute,
		"log_level":  cfg.Logging.Level,
	}).Debug("Configuration loaded")

	// Create and run the scorer with logging
	logger.Info("Initializing scorer")

	s, err := scorer.New(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize scorer")
	}

	// Log component start
	logger.LogComponentStart("scorer", map[string]interface{}{
		"dir":  targetDir,
		"mode": "batch",
	})

	err = s.ScoreDirectory(ctx, targetDir)
	if err != nil {
		logger.WithError(err).WithField("dir", targetDir).Error("Batch run failed")
		logger.LogComponentStop("scorer", "error")
		os.Exit(1)
	}

	logger.LogComponentStop("scorer", "completed")
	logger.WithField("dir", targetDir).Info("All images scored successfully")
}
*/

// Example integration in scorer package:
/*
func (s *Scorer) ScoreDirectory(ctx context.Context, dir string) error {
	log := logger.GetLogger().
		WithField("component", "scorer").
		WithField("dir", dir)

	log.Info("Starting batch scoring run")

	// Discover images
	log.Debug("Scanning directory for images")
	images := imaging.FindImages(dir)

	log.WithFields(map[string]interface{}{
		"total_files": len(images),
	}).Info("Image scan complete")

	// ... rest of the implementation ...
}
*/

// Example integration in a pool worker:
/*
func (s *Scorer) scoreOne(ctx context.Context, path string) (vlm.Evaluation, error) {
	start := time.Now()
	log := logger.GetLogger().
		WithField("component", "taskpool").
		WithField("path", path)

	log.Debug("Starting scoring task")

	// ... encode, submit, parse ...

	duration := time.Since(start)
	log.WithField("duration", duration).Info("Scoring task completed")

	// Use helper function for standardized logging
	logger.LogScore(path, eval.Score, true, nil)

	return eval, nil
}
*/

// Example integration with rate limiter:
/*
func (s *Scorer) reportWindow(resetAt time.Time) {
	used, max, _ := s.tracker.WindowUsage()
	if used >= max {
		logger.LogRateLimit("vlm_api", int(time.Until(resetAt).Seconds()))
	}
}
*/
