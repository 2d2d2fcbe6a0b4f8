package tui_test

import (
	"fmt"
	"time"

	"vlmscore/pkg/ui/tui"
)

func ExampleTUI() {
	// Create a new TUI with max 5 concurrent requests
	terminal := tui.NewTUI(5)

	// Start the TUI in a goroutine
	go func() {
		if err := terminal.Start(); err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
	}()

	// Queue a batch, then score it
	terminal.SetTotal(10)
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("task_%d", i)
		terminal.EnqueueScore(id, fmt.Sprintf("photos/photo%d.jpg", i))
	}

	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("task_%d", i)
		terminal.StartScore(id, fmt.Sprintf("photos/photo%d.jpg", i))

		// Simulate the model call finishing
		go func(taskID string, num int) {
			time.Sleep(time.Duration(200+num*50) * time.Millisecond)

			if num%3 == 0 {
				terminal.FailScore(taskID, "", fmt.Errorf("simulated error"))
			} else {
				terminal.CompleteScore(taskID, "", 5.5+float64(num)*0.3, 1200+num*40)
			}
		}(id, i)

		time.Sleep(100 * time.Millisecond) // Stagger starts
	}

	// Update run-level panels
	terminal.UpdateRateLimit(30, 600, time.Now().Add(time.Minute))
	terminal.UpdateCost(0.0421, "¥")

	// Add some logs
	terminal.LogInfo("Starting scoring run")
	terminal.LogWarning("Rate limit approaching")
	terminal.LogError("Failed to reach endpoint")
	terminal.LogSuccess("Scoring completed successfully")

	// Keep running for demo
	time.Sleep(5 * time.Second)
	terminal.Stop()
}
