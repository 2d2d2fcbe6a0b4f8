// Package scorer provides the core functionality for batch-scoring images.
//
// The scorer package orchestrates the entire scoring process, coordinating
// between the VLM API client, the task pool, checkpointing, sidecar storage,
// and cost accounting.
//
// Architecture:
//
// The Scorer struct is the main component that:
//   - Discovers and validates the images under a directory
//   - Skips images that already have a sidecar or a checkpoint entry
//   - Submits the rest to a bounded task pool
//   - Records every outcome in the checkpoint for crash-safe resume
//   - Drives the progress display, cost accounting, and the error log
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scorer.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = s.ScoreDirectory(context.Background(), "./photos")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Resume:
//
// Every outcome is recorded in a checkpoint file inside the scored
// directory. A rerun over the same directory skips images that already
// completed and retries the ones that failed. Deleting an image's sidecar
// or passing a force rerun rescores it.
//
// Rate Limiting:
//
// Requests are paced by the token bucket inside the VLM client, sized from
// the rate_limit configuration. The scorer mirrors the request budget into
// the display so a saturated window is visible before the client starts
// blocking.
package scorer
