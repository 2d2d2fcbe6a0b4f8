package taskpool

// Stats is a point-in-time snapshot of pool activity. Timed-out tasks
// are counted in both TimedOut and Failed, so Failed is the total
// number of unsuccessful outcomes.
type Stats struct {
	Capacity    int     `json:"max_concurrent"`
	InFlight    int     `json:"active_tasks"`
	Available   int     `json:"available_slots"`
	Submitted   uint64  `json:"total_submitted"`
	Completed   uint64  `json:"completed"`
	Failed      uint64  `json:"failed"`
	TimedOut    uint64  `json:"timeout"`
	SuccessRate float64 `json:"success_rate"`
}
