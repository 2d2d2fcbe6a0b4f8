package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// TotalMsg sets how many images the run will score
type TotalMsg struct {
	Total int
}

// ScoreQueuedMsg is sent when an image is queued for scoring
type ScoreQueuedMsg struct {
	ID   string
	Path string
}

// ScoreStartMsg is sent when an image starts scoring
type ScoreStartMsg struct {
	ID   string
	Path string
}

// ScoreCompleteMsg is sent when an image has been scored
type ScoreCompleteMsg struct {
	ID     string
	Score  float64
	Tokens int
}

// ScoreErrorMsg is sent when scoring an image fails
type ScoreErrorMsg struct {
	ID    string
	Error error
}

// RateLimitUpdateMsg is sent to update rate limit status
type RateLimitUpdateMsg struct {
	Used    int
	Max     int
	ResetAt time.Time
}

// CostUpdateMsg is sent to update the run's accumulated spend
type CostUpdateMsg struct {
	Total  float64
	Symbol string
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		// Regular UI update tick
		return m, tea.Batch(
			tickCmd(),
			m.spinner.Tick,
		)

	case TotalMsg:
		m.SetTotal(msg.Total)
		return m, nil

	case ScoreQueuedMsg:
		m.AddScore(msg.ID, msg.Path)
		return m, nil

	case ScoreStartMsg:
		m.AddScore(msg.ID, msg.Path)
		if item := m.StartScore(msg.ID); item != nil {
			m.AddLogMessage("INFO", "Scoring: "+item.Name)
		}
		return m, nil

	case ScoreCompleteMsg:
		if item := m.CompleteScore(msg.ID, msg.Score, msg.Tokens); item != nil {
			m.AddLogMessage("SUCCESS", "Scored: "+item.Name+" ("+formatScore(item.Score)+")")
		}
		return m, nil

	case ScoreErrorMsg:
		if item := m.FailScore(msg.ID, msg.Error); item != nil {
			m.AddLogMessage("ERROR", "Failed: "+item.Name+" - "+msg.Error.Error())
		}
		return m, nil

	case RateLimitUpdateMsg:
		m.UpdateRateLimit(msg.Used, msg.Max, msg.ResetAt)
		return m, nil

	case CostUpdateMsg:
		m.UpdateCost(msg.Total, msg.Symbol)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Scoring paused by user")
		} else {
			m.AddLogMessage("INFO", "Scoring resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		// Clear logs
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// Commands

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Helper functions for external use

// SendTotal creates a message setting the run's image count
func SendTotal(total int) tea.Msg {
	return TotalMsg{Total: total}
}

// SendScoreQueued creates a message queueing an image
func SendScoreQueued(id, path string) tea.Msg {
	return ScoreQueuedMsg{ID: id, Path: path}
}

// SendScoreStart creates a message to start scoring an image
func SendScoreStart(id, path string) tea.Msg {
	return ScoreStartMsg{ID: id, Path: path}
}

// SendScoreComplete creates a message when an image has been scored
func SendScoreComplete(id string, score float64, tokens int) tea.Msg {
	return ScoreCompleteMsg{ID: id, Score: score, Tokens: tokens}
}

// SendScoreError creates a message when scoring fails
func SendScoreError(id string, err error) tea.Msg {
	return ScoreErrorMsg{ID: id, Error: err}
}

// SendRateLimitUpdate creates a message to update rate limit
func SendRateLimitUpdate(used, max int, resetAt time.Time) tea.Msg {
	return RateLimitUpdateMsg{
		Used:    used,
		Max:     max,
		ResetAt: resetAt,
	}
}

// SendCostUpdate creates a message to update accumulated spend
func SendCostUpdate(total float64, symbol string) tea.Msg {
	return CostUpdateMsg{Total: total, Symbol: symbol}
}

// SendLog creates a log message
func SendLog(level, message string) tea.Msg {
	return LogMsg{Level: level, Message: message}
}
