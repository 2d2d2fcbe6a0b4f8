package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// Build the UI layout
	var sections []string

	// Banner
	sections = append(sections, m.renderBanner())

	// Main content area with two columns
	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ", // spacing
		rightColumn,
	)
	sections = append(sections, mainContent)

	// Help
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	// Join all sections vertically
	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// renderBanner renders the dashboard banner
func (m *Model) renderBanner() string {
	banner := `
╔══════════════════════════════════════════════╗
║   VLMSCORE - BATCH IMAGE QUALITY SCORING     ║
╚══════════════════════════════════════════════╝`

	return bannerStyle.Width(m.width).Render(banner)
}

// renderLeftColumn renders the left side of the UI
func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	var sections []string

	// Stats panel
	sections = append(sections, m.renderStatsPanel(width))

	// Active scores panel
	sections = append(sections, m.renderActiveScoresPanel(width))

	// Queue panel
	sections = append(sections, m.renderQueuePanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderRightColumn renders the right side of the UI
func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	var sections []string

	// Rate limit panel
	sections = append(sections, m.renderRateLimitPanel(width))

	// Logs panel
	sections = append(sections, m.renderLogsPanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsPanel renders the statistics panel
func (m *Model) renderStatsPanel(width int) string {
	rate, eta := m.GetScoreStats()

	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" RUN STATS ")

	elapsed := time.Since(m.sessionStartTime)

	cost := m.costSoFar
	if cost == "" {
		cost = "0.0000"
	}

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Scored:"), statsValueStyle.Render(fmt.Sprintf("%d/%d images", m.totalScored, m.totalImages))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed:"), statsValueStyle.Render(fmt.Sprintf("%d", m.totalFailed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("In Flight:"), statsValueStyle.Render(fmt.Sprintf("%d/%d", m.activeScores, m.maxConcurrent))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Tokens:"), tokensStyle.Render(FormatTokens(m.totalTokens))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Cost:"), tokensStyle.Render(cost)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f img/min", rate))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("ETA:"), statsValueStyle.Render(formatDuration(eta))),
	}

	// Overall completion bar
	frac := 0.0
	if m.totalImages > 0 {
		frac = float64(m.totalScored+m.totalFailed) / float64(m.totalImages)
		if frac > 1.0 {
			frac = 1.0
		}
	}
	bar := m.overall
	bar.Width = width - 6
	stats = append(stats, bar.ViewAs(frac))

	if m.isPaused {
		stats = append(stats, GlowText("⏸  PAUSED", neonOrange))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, stats...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderActiveScoresPanel renders the images currently in flight
func (m *Model) renderActiveScoresPanel(width int) string {
	title := titleStyle.Render(" ACTIVE SCORES ")

	active := m.GetActiveScores()

	if len(active) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("No images in flight")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	var items []string
	for _, item := range active {
		items = append(items, m.renderScoreItem(item, width-4))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderScoreItem renders a single in-flight image with its elapsed time
func (m *Model) renderScoreItem(item *ScoreItem, width int) string {
	elapsed := time.Since(item.StartTime)

	name := item.Name
	maxNameLen := width - 20
	if maxNameLen > 0 && len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	return fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		queueItemActiveStyle.Render(name),
		lipgloss.NewStyle().Foreground(dimWhite).Render(formatDuration(elapsed)),
	)
}

// renderQueuePanel renders the scoring queue
func (m *Model) renderQueuePanel(width int) string {
	title := titleStyle.Render(" SCORE QUEUE ")

	pending := m.GetPendingScores()
	completed := m.GetCompletedScores()

	var items []string

	// Show some pending items
	pendingCount := len(pending)
	if pendingCount > 0 {
		items = append(items, warningStyle.Render(fmt.Sprintf("⏳ %d pending", pendingCount)))
		for i := 0; i < 3 && i < pendingCount; i++ {
			items = append(items, queueItemStyle.Render("• "+pending[i].Name))
		}
		if pendingCount > 3 {
			items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("  ... and %d more", pendingCount-3)))
		}
	}

	// Show recent completed with their scores
	completedCount := len(completed)
	if completedCount > 0 {
		items = append(items, "", successStyle.Render(fmt.Sprintf("✓ %d scored", completedCount)))
		start := completedCount - 3
		if start < 0 {
			start = 0
		}
		for i := start; i < completedCount; i++ {
			items = append(items, queueItemCompletedStyle.Render(
				fmt.Sprintf("✓ %s  %s", completed[i].Name, formatScore(completed[i].Score))))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderRateLimitPanel renders the request budget status
func (m *Model) renderRateLimitPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" REQUEST BUDGET ")

	usage := 0.0
	if m.rateLimitMax > 0 {
		usage = float64(m.rateLimitUsed) / float64(m.rateLimitMax) * 100
	}

	// Create progress bar for rate limit
	barWidth := width - 8
	filled := int(usage * float64(barWidth) / 100)
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	barStyle := GetRateLimitStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", empty))

	resetIn := time.Until(m.rateLimitResetAt)
	if resetIn < 0 {
		resetIn = 0
	}

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Usage:"),
			barStyle.Render(fmt.Sprintf("%d/%d (%.0f%%)", m.rateLimitUsed, m.rateLimitMax, usage))),
		bar,
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Reset in:"),
			statsValueStyle.Render(formatDuration(resetIn))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" RUN LOG ")

	// Get recent logs
	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := log.Message

		// Truncate message if too long
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	// Calculate height for logs panel to fill remaining space
	logsHeight := m.height - 35 // Approximate calculation
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Navigation:
    q/Q      - Quit the dashboard
    p/P      - Pause/Resume scoring
    ?        - Toggle this help

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Active/Healthy
    ` + warningStyle.Render("Orange") + `   - Warning/Pending
    ` + errorStyle.Render("Red") + `      - Error/Critical

  Icons:
    ⏳       - Pending image
    ✓        - Scored image
    ⏸        - Paused
    █        - Progress indicator
`

	return panelStyle.Width(m.width).Render(help)
}

// formatScore renders a quality score to one decimal place
func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
