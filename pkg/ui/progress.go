package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of scoring progress and request budget use
// within the current one-minute window
type StatusTracker struct {
	TotalScored int
	WindowCount int
	WindowLimit int
	StartTime   time.Time
	WindowStart time.Time
}

// NewStatusTracker creates a tracker sized to the configured
// requests-per-minute budget
func NewStatusTracker(requestsPerMinute int) *StatusTracker {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 600
	}
	now := time.Now()
	return &StatusTracker{
		WindowLimit: requestsPerMinute,
		StartTime:   now,
		WindowStart: now,
	}
}

// IncrementScored counts a completed request against the total and the
// current window
func (st *StatusTracker) IncrementScored() {
	st.rollWindow()
	st.TotalScored++
	st.WindowCount++
}

// ResetWindow starts a fresh request window
func (st *StatusTracker) ResetWindow() {
	st.WindowCount = 0
	st.WindowStart = time.Now()
}

// rollWindow resets the window once a minute has passed
func (st *StatusTracker) rollWindow() {
	if time.Since(st.WindowStart) >= time.Minute {
		st.ResetWindow()
	}
}

// WindowUsage returns the requests used in the current window, the
// window limit, and when the window resets
func (st *StatusTracker) WindowUsage() (used, limit int, resetAt time.Time) {
	st.rollWindow()
	return st.WindowCount, st.WindowLimit, st.WindowStart.Add(time.Minute)
}

// GetWindowProgress returns a formatted progress bar for the current window
func (st *StatusTracker) GetWindowProgress() string {
	const width = 20
	progress := float64(st.WindowCount) / float64(st.WindowLimit)
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.WindowCount, st.WindowLimit)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetScoreRate returns the average scoring rate (images per minute)
func (st *StatusTracker) GetScoreRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.TotalScored) / elapsed
}

// PrintProgress prints the current progress status
func (st *StatusTracker) PrintProgress() {
	fmt.Printf("\r%s Total: %d | Window: %s",
		Green("[SCORED]"),
		st.TotalScored,
		st.GetWindowProgress())
}

// IsRateLimitReached checks if the current window has used its budget
func (st *StatusTracker) IsRateLimitReached() bool {
	st.rollWindow()
	return st.WindowCount >= st.WindowLimit
}

// GetScoredCount returns the total number of scored images
func (st *StatusTracker) GetScoredCount() int {
	return st.TotalScored
}

// SetScoredCount sets the total scored count (used for resuming)
func (st *StatusTracker) SetScoredCount(count int) {
	st.TotalScored = count
}
