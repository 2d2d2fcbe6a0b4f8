package results

import (
	"strings"
	"time"

	"vlmscore/pkg/vlm"
)

// ScoreResult is the persisted outcome of scoring one image. It extends
// the model's verdict with provenance so a sidecar file can be read on
// its own: which image it belongs to, when it was scored and by which
// run. Sidecars written by earlier pipelines carry only the verdict
// fields; the extra fields decode as zero values.
type ScoreResult struct {
	vlm.Evaluation

	Path     string    `json:"path,omitempty"`
	ScoredAt time.Time `json:"scored_at"`
	RunID    string    `json:"run_id,omitempty"`
}

// FromEvaluation builds the sidecar record for an image from the
// model's verdict, stamped with the current time.
func FromEvaluation(imagePath, runID string, eval *vlm.Evaluation) *ScoreResult {
	return &ScoreResult{
		Evaluation: *eval,
		Path:       imagePath,
		ScoredAt:   time.Now().UTC(),
		RunID:      runID,
	}
}

// Band returns the quality band the result's score falls into.
func (r *ScoreResult) Band() QualityBand {
	return BandFor(r.Score)
}

// ShortFeedback returns the feedback trimmed to maxLength runes for
// table display, with an ellipsis when truncated.
func (r *ScoreResult) ShortFeedback(maxLength int) string {
	feedback := strings.TrimSpace(r.Feedback)
	if feedback == "" {
		return "(no feedback)"
	}

	runes := []rune(feedback)
	if maxLength > 3 && len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return feedback
}
