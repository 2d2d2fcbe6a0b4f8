package ui

import "time"

// Display is the live view of a scoring run. ProgressDisplay renders it
// as a single rewritten line for plain terminals and CI logs; the tui
// package renders it as a full-screen dashboard. The scorer drives
// whichever one the run was started with through this interface.
type Display interface {
	// SetTotal tells the display how many images the run will score
	SetTotal(total int)

	// EnqueueScore registers an image before its task is submitted
	EnqueueScore(id, path string)

	// StartScore marks an image as in flight
	StartScore(id, path string)

	// CompleteScore records a scored image with its score and token use
	CompleteScore(id, path string, score float64, tokens int)

	// FailScore records an image that could not be scored
	FailScore(id, path string, err error)

	// UpdateRateLimit reports request budget consumption for the
	// current window
	UpdateRateLimit(used, max int, resetAt time.Time)

	// UpdateCost reports the run's accumulated spend
	UpdateCost(total float64, symbol string)

	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})

	// IsPaused reports whether the user paused submissions
	IsPaused() bool

	// Complete renders the end-of-run summary
	Complete()
}
