// Package checkpoint provides functionality for saving and resuming
// batch scoring progress.
//
// The checkpoint system allows a scoring run to resume after
// interruptions such as network failures, rate limits, or manual stops.
// It tracks:
//   - Identifiers that completed successfully (skipped on resume)
//   - Identifiers that failed (retried on resume)
//   - Overall progress statistics and timing
//
// The checkpoint is a single JSON file stored next to the batch it
// describes, so moving a directory of images to another machine carries
// its progress along. Files are saved atomically to prevent corruption
// and include versioning for future compatibility. A missing or corrupt
// checkpoint never fails a run; scoring simply starts fresh.
package checkpoint
