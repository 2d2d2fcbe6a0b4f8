// Package results persists and reads scoring verdicts as sidecar files.
//
// The results package handles:
//   - Writing a JSON sidecar next to each scored image
//   - Loading sidecars back for skip checks, reports and filtering
//   - Validating sidecar trees against the result schema
//   - Binning scores into quality bands for distribution tables
//   - Recording failed images in an append-only JSONL error log
//
// The Store type is the primary interface for sidecar operations. A
// sidecar takes the image's path with the extension replaced by the
// configured suffix, so photo.jpg scores into photo.json. Writes go
// through a temporary file and rename, and an in-memory cache keeps
// repeated existence checks cheap during the skip pass.
//
// Usage:
//
//	store := results.NewStore(&cfg.Output, log)
//
//	if !store.Exists(imagePath) {
//	    result := results.FromEvaluation(imagePath, runID, eval)
//	    if err := store.Save(result); err != nil {
//	        log.Error("failed to save result: " + err.Error())
//	    }
//	}
package results
