package tui

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScoreState represents the state of a single image's scoring task
type ScoreState int

const (
	ScorePending ScoreState = iota
	ScoreActive
	ScoreCompleted
	ScoreFailed
)

// ScoreItem represents one image moving through the pipeline
type ScoreItem struct {
	ID        string
	Path      string
	Name      string
	State     ScoreState
	StartTime time.Time
	Score     float64
	Tokens    int
	Error     error
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner spinner.Model
	overall progress.Model

	// Scoring state
	scores        map[string]*ScoreItem
	scoreOrder    []string
	activeScores  int
	maxConcurrent int

	// Stats
	totalImages      int
	totalScored      int
	totalFailed      int
	totalTokens      int64
	costSoFar        string
	sessionStartTime time.Time

	// Rate limiting
	rateLimitMax     int
	rateLimitUsed    int
	rateLimitResetAt time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	// Mutex for thread safety
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model
func NewModel(maxConcurrent int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:          s,
		overall:          p,
		scores:           make(map[string]*ScoreItem),
		scoreOrder:       []string{},
		maxConcurrent:    maxConcurrent,
		sessionStartTime: time.Now(),
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
		rateLimitMax:     600, // Default request budget per minute
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetTotal sets how many images the run will score
func (m *Model) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalImages = total
}

// AddScore adds an image to the queue
func (m *Model) AddScore(id, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scores[id]; ok {
		return
	}
	m.scores[id] = &ScoreItem{
		ID:    id,
		Path:  path,
		Name:  filepath.Base(path),
		State: ScorePending,
	}
	m.scoreOrder = append(m.scoreOrder, id)
}

// StartScore marks an image as actively scoring
func (m *Model) StartScore(id string) *ScoreItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.scores[id]
	if !ok {
		return nil
	}
	item.State = ScoreActive
	item.StartTime = time.Now()
	m.activeScores++
	return item
}

// CompleteScore marks an image as scored
func (m *Model) CompleteScore(id string, score float64, tokens int) *ScoreItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.scores[id]
	if !ok {
		return nil
	}
	item.State = ScoreCompleted
	item.Score = score
	item.Tokens = tokens
	m.activeScores--
	m.totalScored++
	m.totalTokens += int64(tokens)
	return item
}

// FailScore marks an image as failed
func (m *Model) FailScore(id string, err error) *ScoreItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.scores[id]
	if !ok {
		return nil
	}
	item.State = ScoreFailed
	item.Error = err
	m.activeScores--
	m.totalFailed++
	return item
}

// UpdateRateLimit updates the rate limit status
func (m *Model) UpdateRateLimit(used, max int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rateLimitUsed = used
	m.rateLimitMax = max
	m.rateLimitResetAt = resetAt
}

// UpdateCost updates the accumulated spend shown in the stats panel
func (m *Model) UpdateCost(total float64, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.costSoFar = fmt.Sprintf("%s%.4f", symbol, total)
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// GetActiveScores returns the images currently in flight
func (m *Model) GetActiveScores() []*ScoreItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []*ScoreItem
	for _, id := range m.scoreOrder {
		if item := m.scores[id]; item != nil && item.State == ScoreActive {
			active = append(active, item)
		}
	}
	return active
}

// GetPendingScores returns the images waiting for a slot
func (m *Model) GetPendingScores() []*ScoreItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []*ScoreItem
	for _, id := range m.scoreOrder {
		if item := m.scores[id]; item != nil && item.State == ScorePending {
			pending = append(pending, item)
		}
	}
	return pending
}

// GetCompletedScores returns the images scored so far
func (m *Model) GetCompletedScores() []*ScoreItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var completed []*ScoreItem
	for _, id := range m.scoreOrder {
		if item := m.scores[id]; item != nil && item.State == ScoreCompleted {
			completed = append(completed, item)
		}
	}
	return completed
}

// GetScoreStats returns the scoring rate in images per minute and the
// estimated time remaining
func (m *Model) GetScoreStats() (rate float64, eta time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	done := m.totalScored + m.totalFailed
	elapsed := time.Since(m.sessionStartTime)

	if done > 0 && elapsed > 0 {
		rate = float64(m.totalScored) / elapsed.Minutes()

		remaining := m.totalImages - done
		if remaining > 0 {
			perItem := elapsed / time.Duration(done)
			eta = perItem * time.Duration(remaining)
		}
	}

	return
}

// FormatTokens formats a token count to human readable form
func FormatTokens(tokens int64) string {
	switch {
	case tokens < 1_000:
		return fmt.Sprintf("%d tok", tokens)
	case tokens < 1_000_000:
		return fmt.Sprintf("%.1fk tok", float64(tokens)/1_000)
	default:
		return fmt.Sprintf("%.1fM tok", float64(tokens)/1_000_000)
	}
}
