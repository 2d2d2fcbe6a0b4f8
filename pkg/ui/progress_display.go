package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ProgressDisplay provides a clean, minimal progress display
type ProgressDisplay struct {
	mu           sync.Mutex
	label        string
	totalImages  int
	scoredCount  int
	failedCount  int
	currentImage string
	startTime    time.Time
	lastUpdate   time.Time
	tokensUsed   int64
	costLine     string
	termWidth    int
	isDebug      bool
}

// NewProgressDisplay creates a progress display for a scoring run over
// the given directory
func NewProgressDisplay(label string, totalImages int, debug bool) *ProgressDisplay {
	width := 120
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	return &ProgressDisplay{
		label:       label,
		totalImages: totalImages,
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		termWidth:   width,
		isDebug:     debug,
	}
}

// SetTotal updates the number of images the run will score
func (p *ProgressDisplay) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalImages = total
}

// EnqueueScore is a no-op for the plain display; only in-flight work is
// shown on the progress line
func (p *ProgressDisplay) EnqueueScore(id, path string) {}

// StartScore marks an image as in flight
func (p *ProgressDisplay) StartScore(id, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentImage = filepath.Base(path)
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	}
}

// CompleteScore records a scored image
func (p *ProgressDisplay) CompleteScore(id, path string, score float64, tokens int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scoredCount++
	p.tokensUsed += int64(tokens)
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	} else {
		fmt.Printf("\n%s %s • %.1f • %s\n",
			Green("✓"),
			filepath.Base(path),
			score,
			Dim(formatTokens(int64(tokens))),
		)
	}
}

// FailScore records an image that could not be scored
func (p *ProgressDisplay) FailScore(id, path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failedCount++
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	} else {
		fmt.Printf("\n%s Failed: %s - %v\n", Red("✗"), filepath.Base(path), err)
	}
}

// UpdateRateLimit warns when the request budget for the window is spent
func (p *ProgressDisplay) UpdateRateLimit(used, max int, resetAt time.Time) {
	if max <= 0 || used < max {
		return
	}
	p.RateLimitWarning(time.Until(resetAt))
}

// UpdateCost records the run's accumulated spend for the progress line
func (p *ProgressDisplay) UpdateCost(total float64, symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.costLine = fmt.Sprintf("%s%.4f", symbol, total)
}

// LogInfo prints an informational line in debug mode
func (p *ProgressDisplay) LogInfo(format string, args ...interface{}) {
	if p.isDebug {
		fmt.Printf("\n%s %s\n", Cyan("→"), fmt.Sprintf(format, args...))
	}
}

// LogSuccess prints a success line in debug mode
func (p *ProgressDisplay) LogSuccess(format string, args ...interface{}) {
	if p.isDebug {
		fmt.Printf("\n%s %s\n", Green("✓"), fmt.Sprintf(format, args...))
	}
}

// LogWarning prints a warning line and redraws the progress line
func (p *ProgressDisplay) LogWarning(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("\n%s %s\n", Yellow("⚠"), fmt.Sprintf(format, args...))
	if !p.isDebug {
		p.printProgress()
	}
}

// LogError prints an error line and redraws the progress line
func (p *ProgressDisplay) LogError(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("\n%s %s\n", Red("✗"), fmt.Sprintf(format, args...))
	if !p.isDebug {
		p.printProgress()
	}
}

// IsPaused always reports false; the plain display has no keyboard input
func (p *ProgressDisplay) IsPaused() bool {
	return false
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	// Calculate stats
	elapsed := time.Since(p.startTime)
	rate := float64(p.scoredCount) / elapsed.Minutes()
	eta := p.calculateETA()

	// Build progress bar
	progress := 0.0
	if p.totalImages > 0 {
		progress = float64(p.scoredCount) / float64(p.totalImages)
	}
	barWidth := 20
	filled := int(progress * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	// Format line
	line := fmt.Sprintf("\r%s [%s] %d/%d • %.1f/min • %s • %s",
		Cyan(p.label),
		bar,
		p.scoredCount,
		p.totalImages,
		rate,
		formatTokens(p.tokensUsed),
		eta,
	)

	if p.costLine != "" {
		line += fmt.Sprintf(" • %s", p.costLine)
	}

	// Add current image if scoring
	if p.currentImage != "" {
		line += fmt.Sprintf(" • %s", p.currentImage)
	}

	// Add failures if any
	if p.failedCount > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failed", p.failedCount)))
	}

	// Clear line and print
	fmt.Printf("\r%s\r%s", strings.Repeat(" ", p.termWidth), line)
}

// Complete marks the entire run as complete
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	fmt.Printf("\n\n%s Scored %d images from %s\n",
		Green("✓"),
		p.scoredCount,
		p.label,
	)

	// Summary stats
	fmt.Printf("  %s %s in %s (%.1f images/min)\n",
		Dim("•"),
		formatTokens(p.tokensUsed),
		p.formatDuration(elapsed),
		float64(p.scoredCount)/elapsed.Minutes(),
	)

	if p.costLine != "" {
		fmt.Printf("  %s total cost %s\n", Dim("•"), p.costLine)
	}

	if p.failedCount > 0 {
		fmt.Printf("  %s %d images failed\n",
			Dim("•"),
			p.failedCount,
		)
	}
}

// calculateETA estimates time remaining
func (p *ProgressDisplay) calculateETA() string {
	if p.scoredCount == 0 {
		return "calculating..."
	}

	remaining := p.totalImages - p.scoredCount
	elapsed := time.Since(p.startTime)
	rate := float64(p.scoredCount) / elapsed.Seconds()

	if rate == 0 {
		return "calculating..."
	}

	etaSeconds := float64(remaining) / rate
	eta := time.Duration(etaSeconds) * time.Second

	return p.formatDuration(eta)
}

// formatDuration formats a duration in a human-readable way
func (p *ProgressDisplay) formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	} else {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// formatTokens formats a token count in a human-readable way
func formatTokens(tokens int64) string {
	switch {
	case tokens < 1_000:
		return fmt.Sprintf("%d tok", tokens)
	case tokens < 1_000_000:
		return fmt.Sprintf("%.1fk tok", float64(tokens)/1_000)
	default:
		return fmt.Sprintf("%.1fM tok", float64(tokens)/1_000_000)
	}
}

// RateLimitWarning shows a rate limit warning
func (p *ProgressDisplay) RateLimitWarning(waitTime time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if waitTime < 0 {
		waitTime = 0
	}
	fmt.Printf("\n%s Rate limit reached. Waiting %s...\n",
		Yellow("⚠"),
		p.formatDuration(waitTime),
	)
}
