package checkpoint

import "time"

// Progress summarizes how far a scoring run has come
type Progress struct {
	CompletedCount     int           `json:"completed_count"`
	FailedCount        int           `json:"failed_count"`
	ProcessedCount     int           `json:"processed_count"`
	TotalFiles         int           `json:"total_files"`
	RemainingCount     int           `json:"remaining_count"`
	SuccessRate        float64       `json:"success_rate"`
	ProgressPercentage float64       `json:"progress_percentage"`
	Elapsed            time.Duration `json:"elapsed_time"`
	EstimatedRemaining time.Duration `json:"estimated_remaining_time"`
}

// Progress computes current run statistics. The time estimate assumes
// remaining files cost as much as the average so far; with nothing
// processed yet there is no estimate.
func (m *Manager) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()

	completedCount := len(m.completed)
	failedCount := len(m.failed)
	processed := completedCount + failedCount

	p := Progress{
		CompletedCount: completedCount,
		FailedCount:    failedCount,
		ProcessedCount: processed,
		TotalFiles:     m.totalFiles,
		RemainingCount: max(0, m.totalFiles-processed),
		Elapsed:        time.Since(m.startTime),
	}
	if processed > 0 {
		p.SuccessRate = float64(completedCount) / float64(processed) * 100
	}
	if m.totalFiles > 0 {
		p.ProgressPercentage = float64(processed) / float64(m.totalFiles) * 100
	}
	if processed > 0 && p.RemainingCount > 0 {
		avgPerFile := p.Elapsed / time.Duration(processed)
		p.EstimatedRemaining = avgPerFile * time.Duration(p.RemainingCount)
	}

	return p
}
