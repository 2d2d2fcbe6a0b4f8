// Package logger provides the structured logging layer for vlmscore.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output (JSON lines)
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "vlmscore/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/vlmscore.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Batch run started")
//	logger.WithField("path", "photos/0001.jpg").Info("Image scored")
//	logger.WithError(err).Error("Failed to score image")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "taskpool").
//	    WithField("run_id", runID)
//
//	// Use structured logging
//	log.InfoWithFields("Scoring completed", map[string]interface{}{
//	    "file": "image.jpg",
//	    "score": 8.5,
//	    "duration": time.Second * 5,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
package logger
