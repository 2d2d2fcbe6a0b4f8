package imaging

import (
	"fmt"
	"image"
	"os"
)

// ValidationResult is the outcome of a pre-flight image check. Reason is
// empty for valid images; otherwise it starts with a stable category
// ("error", "too_small", "too_large", "invalid_dimensions") so callers
// can aggregate skip statistics.
type ValidationResult struct {
	OK             bool
	Reason         string
	Width          int
	Height         int
	NeedsDownscale bool
}

// Validate inspects an image header without decoding pixel data, cheap
// enough to run over a whole batch before any API calls. Images larger
// than maxDim stay valid; they are flagged for downscaling instead,
// since the API rejects them only sometimes. minDim, maxDim, and
// maxFileSize are ignored when zero.
func Validate(path string, minDim, maxDim int, maxFileSize int64) ValidationResult {
	info, err := os.Stat(path)
	if err != nil {
		return ValidationResult{Reason: fmt.Sprintf("error: %v", err)}
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return ValidationResult{
			Reason: fmt.Sprintf("too_large: %d bytes exceeds %d byte limit", info.Size(), maxFileSize),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return ValidationResult{Reason: fmt.Sprintf("error: %v", err)}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return ValidationResult{Reason: fmt.Sprintf("error: %v", err)}
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ValidationResult{
			Width:  cfg.Width,
			Height: cfg.Height,
			Reason: fmt.Sprintf("invalid_dimensions: %dx%d", cfg.Width, cfg.Height),
		}
	}
	if minDim > 0 && (cfg.Width < minDim || cfg.Height < minDim) {
		return ValidationResult{
			Width:  cfg.Width,
			Height: cfg.Height,
			Reason: fmt.Sprintf("too_small: %dx%d below %dpx minimum", cfg.Width, cfg.Height, minDim),
		}
	}

	result := ValidationResult{
		OK:     true,
		Width:  cfg.Width,
		Height: cfg.Height,
	}
	if maxDim > 0 && (cfg.Width > maxDim || cfg.Height > maxDim) {
		result.NeedsDownscale = true
	}
	return result
}
