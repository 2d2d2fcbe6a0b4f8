// Package ui provides terminal UI components for scoring runs
// This file demonstrates example usage of the UI components
package ui

/*
Example usage of the UI components:

// Terminal colors and output
ui.PrintBanner()                                 // Print startup banner
ui.PrintInfo("Directory", "./photos")            // Cyan label, yellow value
ui.PrintSuccess("Scoring completed!")            // Green success message
ui.PrintError("Failed to score", err.Error())    // Red "label: detail" message
ui.PrintWarning("Rate limit approaching")        // Yellow warning message
ui.PrintHighlight("[PROCESSING]")                // Magenta highlight message

// Live progress for plain terminals
display := ui.NewProgressDisplay("photos", 240, false)
display.StartScore(id, "photos/cat.jpg")
display.CompleteScore(id, "photos/cat.jpg", 8.2, 1540)
display.UpdateCost(0.1234, "¥")
display.Complete()                               // End-of-run summary

// Request window accounting
tracker := ui.NewStatusTracker(600)
tracker.IncrementScored()
used, max, resetAt := tracker.WindowUsage()
display.UpdateRateLimit(used, max, resetAt)

// Notifications (cross-platform)
notifier := ui.NewNotifier()
notifier.SendNotification("Scoring Complete", "240 images scored")
notifier.SendError("Scoring Failed", "12 images could not be scored")

// Direct color usage
fmt.Printf("%s: %s\n", ui.Cyan("Model"), ui.Yellow("doubao-1-5-vision-pro-32k"))
fmt.Println(ui.Green("✓ Saved"))
fmt.Println(ui.Red("✗ Failed"))
*/
