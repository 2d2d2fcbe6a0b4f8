package ui

import "time"

// NullDisplay is a Display that renders nothing. Runs with ui.mode
// "none" use it so scoring output is limited to logs and the final
// summary.
type NullDisplay struct{}

// NewNullDisplay creates a display that discards every update.
func NewNullDisplay() *NullDisplay {
	return &NullDisplay{}
}

func (NullDisplay) SetTotal(total int) {}

func (NullDisplay) EnqueueScore(id, path string) {}

func (NullDisplay) StartScore(id, path string) {}

func (NullDisplay) CompleteScore(id, path string, score float64, tokens int) {}

func (NullDisplay) FailScore(id, path string, err error) {}

func (NullDisplay) UpdateRateLimit(used, max int, resetAt time.Time) {}

func (NullDisplay) UpdateCost(total float64, symbol string) {}

func (NullDisplay) LogInfo(format string, args ...interface{}) {}

func (NullDisplay) LogSuccess(format string, args ...interface{}) {}

func (NullDisplay) LogWarning(format string, args ...interface{}) {}

func (NullDisplay) LogError(format string, args ...interface{}) {}

func (NullDisplay) IsPaused() bool { return false }

func (NullDisplay) Complete() {}
