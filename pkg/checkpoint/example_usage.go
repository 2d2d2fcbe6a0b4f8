package checkpoint

import (
	"fmt"
	"log"
)

func ExampleManager() {
	// Create a checkpoint manager for a batch directory
	mgr, err := NewManager("photos/.vlmscore_checkpoint.json")
	if err != nil {
		log.Fatal(err)
	}

	// Load prior progress; a missing file just means a fresh start
	completed, failed := mgr.Load()
	if len(completed) > 0 || len(failed) > 0 {
		fmt.Printf("Resuming: %d scored, %d to retry\n", len(completed), len(failed))
	} else {
		fmt.Println("Starting fresh run")
	}

	files := []string{"photos/0001.jpg", "photos/0002.jpg", "photos/0003.jpg"}
	mgr.SetTotalFiles(len(files))

	for _, path := range files {
		// Skip files that already scored in an earlier run
		if mgr.ShouldSkip(path, false) {
			continue
		}

		// ... score the image ...

		// Record the outcome; auto-save persists every N outcomes
		if err := mgr.Record(path, OutcomeCompleted, true); err != nil {
			log.Printf("checkpoint save failed: %v", err)
		}
	}

	// Final save so the last partial interval is not lost
	if err := mgr.Save(); err != nil {
		log.Printf("checkpoint save failed: %v", err)
	}

	stats := mgr.Progress()
	fmt.Printf("Progress: %.1f%% (%d/%d)\n",
		stats.ProgressPercentage, stats.ProcessedCount, stats.TotalFiles)
}

func ExampleManager_ShouldSkip() {
	mgr, _ := NewManager("photos/.vlmscore_checkpoint.json")
	mgr.Load()

	// Completed files are skipped on resume
	mgr.Record("photos/0001.jpg", OutcomeCompleted, false)
	if mgr.ShouldSkip("photos/0001.jpg", false) {
		fmt.Println("0001 already scored, skipping")
	}

	// Failed files are retried, not skipped
	mgr.Record("photos/0002.jpg", OutcomeFailed, false)
	if !mgr.ShouldSkip("photos/0002.jpg", false) {
		fmt.Println("0002 failed last time, retrying")
	}

	// A force rerun ignores the checkpoint entirely
	if !mgr.ShouldSkip("photos/0001.jpg", true) {
		fmt.Println("force rerun rescores 0001")
	}
}
