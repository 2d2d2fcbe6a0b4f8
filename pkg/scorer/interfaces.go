package scorer

import (
	"context"

	"vlmscore/pkg/results"
	"vlmscore/pkg/vlm"
)

// ScoreClient defines the interface for VLM scoring operations
type ScoreClient interface {
	ScoreImage(ctx context.Context, path string) (*vlm.Evaluation, error)
	ConfigInfo() map[string]interface{}
}

// ResultStore defines the interface for sidecar result persistence
type ResultStore interface {
	Save(result *results.ScoreResult) error
	Exists(imagePath string) bool
	SidecarPath(imagePath string) string
	SetOverwrite(overwrite bool)
}
