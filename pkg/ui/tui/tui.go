package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI is the full-screen dashboard for a scoring run. It satisfies the
// ui.Display interface so the scorer can drive it interchangeably with
// the plain progress display.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance
func NewTUI(maxConcurrent int) *TUI {
	model := NewModel(maxConcurrent)
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start starts the TUI
func (t *TUI) Start() error {
	go func() {
		// Send initial tick to start the spinner
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// SetTotal tells the dashboard how many images the run will score
func (t *TUI) SetTotal(total int) {
	t.Send(SendTotal(total))
}

// EnqueueScore registers an image in the queue panel
func (t *TUI) EnqueueScore(id, path string) {
	t.Send(SendScoreQueued(id, path))
}

// StartScore marks an image as in flight
func (t *TUI) StartScore(id, path string) {
	t.Send(SendScoreStart(id, path))
}

// CompleteScore records a scored image
func (t *TUI) CompleteScore(id, path string, score float64, tokens int) {
	t.Send(SendScoreComplete(id, score, tokens))
}

// FailScore records a failed image
func (t *TUI) FailScore(id, path string, err error) {
	t.Send(SendScoreError(id, err))
}

// UpdateRateLimit updates the request budget panel
func (t *TUI) UpdateRateLimit(used, max int, resetAt time.Time) {
	t.Send(SendRateLimitUpdate(used, max, resetAt))
}

// UpdateCost updates the accumulated spend in the stats panel
func (t *TUI) UpdateCost(total float64, symbol string) {
	t.Send(SendCostUpdate(total, symbol))
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.Send(SendLog(level, message))
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}

// IsPaused returns whether scoring is paused
func (t *TUI) IsPaused() bool {
	t.model.mu.RLock()
	defer t.model.mu.RUnlock()
	return t.model.isPaused
}

// Complete logs the end-of-run summary line
func (t *TUI) Complete() {
	t.LogSuccess("Scoring run complete")
}
