package results

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlmscore/pkg/vlm"
)

func writeSidecar(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	writeFile(t, path, content)
	return path
}

func vlmEval(score float64, ai, watermark bool) vlm.Evaluation {
	return vlm.Evaluation{
		IsAIGenerated:    ai,
		WatermarkPresent: watermark,
		Score:            score,
		Feedback:         "ok",
	}
}

func TestValidateFile(t *testing.T) {
	t.Run("valid sidecar", func(t *testing.T) {
		v := NewValidator("")
		path := writeSidecar(t, t.TempDir(), "ok.json", resultJSON)

		report := v.ValidateFile(path)
		assert.True(t, report.Valid)
		assert.Empty(t, report.Errors)
		assert.Empty(t, report.Warnings)
		require.NotNil(t, report.Result)
		assert.Equal(t, 7.5, report.Result.Score)

		stats := v.Stats()
		assert.Equal(t, 1, stats.TotalFiles)
		assert.Equal(t, 1, stats.ValidFiles)
		assert.Equal(t, 0, stats.InvalidFiles)
	})

	t.Run("missing fields count once per file", func(t *testing.T) {
		v := NewValidator("")
		path := writeSidecar(t, t.TempDir(), "sparse.json", `{
			"watermark_present": false,
			"watermark_location": "none",
			"feedback": "ok",
			"api_usage": {"prompt_tokens": 10, "total_tokens": 12},
			"api_provider": "x"
		}`)

		report := v.ValidateFile(path)
		assert.False(t, report.Valid)
		assert.Contains(t, report.Errors, "missing required field: is_ai_generated")
		assert.Contains(t, report.Errors, "missing required field: score")
		assert.Contains(t, report.Errors, "api_usage missing field: completion_tokens")

		stats := v.Stats()
		assert.Equal(t, 1, stats.FieldErrors)
		assert.Equal(t, 1, stats.InvalidFiles)
	})

	t.Run("wrong types", func(t *testing.T) {
		v := NewValidator("")
		path := writeSidecar(t, t.TempDir(), "types.json", `{
			"is_ai_generated": "no",
			"watermark_present": false,
			"watermark_location": "none",
			"score": "8.5",
			"feedback": "ok",
			"api_usage": {"prompt_tokens": 10.5, "completion_tokens": 2, "total_tokens": 12},
			"api_provider": "x"
		}`)

		report := v.ValidateFile(path)
		assert.False(t, report.Valid)
		assert.Contains(t, report.Errors, "field is_ai_generated has wrong type: expected bool, got string")
		assert.Contains(t, report.Errors, "field score has wrong type: expected number, got string")
		assert.Contains(t, report.Errors, "api_usage.prompt_tokens has wrong type: expected integer, got 10.5")
		assert.Equal(t, 1, v.Stats().TypeErrors)
	})

	t.Run("out of range values", func(t *testing.T) {
		v := NewValidator("")
		path := writeSidecar(t, t.TempDir(), "range.json", `{
			"is_ai_generated": false,
			"watermark_present": false,
			"watermark_location": "none",
			"score": 12.5,
			"feedback": "ok",
			"api_usage": {"prompt_tokens": -5, "completion_tokens": 2, "total_tokens": 12},
			"api_provider": "x"
		}`)

		report := v.ValidateFile(path)
		assert.False(t, report.Valid)
		assert.Contains(t, report.Errors, "score out of range: 12.5 (expected 0 to 10)")
		assert.Contains(t, report.Errors, "api_usage.prompt_tokens is negative: -5")
		assert.Equal(t, 1, v.Stats().RangeErrors)
	})

	t.Run("unparseable json", func(t *testing.T) {
		v := NewValidator("")
		path := writeSidecar(t, t.TempDir(), "broken.json", "{nope")

		report := v.ValidateFile(path)
		assert.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "invalid JSON")
		assert.Equal(t, 1, v.Stats().ParseErrors)
		assert.Nil(t, report.Result)
	})

	t.Run("unreadable file", func(t *testing.T) {
		v := NewValidator("")
		report := v.ValidateFile(filepath.Join(t.TempDir(), "missing.json"))

		assert.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "failed to read file")
		assert.Equal(t, 0, v.Stats().ParseErrors)
		assert.Equal(t, 1, v.Stats().InvalidFiles)
	})
}

func TestValidateWarnings(t *testing.T) {
	v := NewValidator("vision.example.com")
	path := writeSidecar(t, t.TempDir(), "warn.json", `{
		"is_ai_generated": true,
		"watermark_present": false,
		"watermark_location": "none",
		"score": 1.5,
		"feedback": "   ",
		"api_usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		"api_provider": "other.example.com"
	}`)

	report := v.ValidateFile(path)

	// Warnings never make a file invalid.
	assert.True(t, report.Valid)
	assert.Contains(t, report.Warnings, "feedback is empty")
	assert.Contains(t, report.Warnings, "low score: 1.5")
	assert.Contains(t, report.Warnings, "unexpected api_provider: other.example.com")
}

func TestValidateProviderNotChecked(t *testing.T) {
	v := NewValidator("")
	path := writeSidecar(t, t.TempDir(), "any.json", resultJSON)

	report := v.ValidateFile(path)
	assert.Empty(t, report.Warnings)
}

func TestValidateAll(t *testing.T) {
	tempDir := t.TempDir()
	good := writeSidecar(t, tempDir, "good.json", resultJSON)
	bad := writeSidecar(t, tempDir, "bad.json", "{nope")
	sparse := writeSidecar(t, tempDir, "sparse.json", `{"score": 5.0}`)

	v := NewValidator("")
	reports := v.ValidateAll([]string{good, bad, sparse})
	require.Len(t, reports, 3)
	assert.True(t, reports[0].Valid)
	assert.False(t, reports[1].Valid)
	assert.False(t, reports[2].Valid)

	stats := v.Stats()
	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 1, stats.ValidFiles)
	assert.Equal(t, 2, stats.InvalidFiles)
	assert.Equal(t, 1, stats.ParseErrors)
	assert.Equal(t, 1, stats.FieldErrors)
	assert.InDelta(t, 33.3, stats.SuccessRate(), 0.1)

	invalid := v.InvalidReports()
	require.Len(t, invalid, 2)
	assert.Equal(t, bad, invalid[0].Path)
	assert.Equal(t, sparse, invalid[1].Path)
}

func TestSuccessRateEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ValidationStats{}.SuccessRate())
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{0.0, "[0.0-2.9] poor"},
		{2.9, "[0.0-2.9] poor"},
		{3.0, "[3.0-4.9] below average"},
		{4.9, "[3.0-4.9] below average"},
		{5.0, "[5.0-6.9] average"},
		{6.9, "[5.0-6.9] average"},
		{7.0, "[7.0-8.9] good"},
		{8.9, "[7.0-8.9] good"},
		{9.0, "[9.0-10.0] professional"},
		{10.0, "[9.0-10.0] professional"},
		{-1.0, "[0.0-2.9] poor"},
		{11.0, "[9.0-10.0] professional"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.label, BandFor(tt.score).Label, "score %v", tt.score)
	}
}

func TestDistribution(t *testing.T) {
	scored := []*ScoreResult{
		{Evaluation: vlmEval(1.0, true, false)},
		{Evaluation: vlmEval(3.5, false, false)},
		{Evaluation: vlmEval(5.0, false, true)},
		{Evaluation: vlmEval(8.0, true, true)},
		{Evaluation: vlmEval(8.5, false, false)},
		{Evaluation: vlmEval(9.5, false, false)},
	}

	stats := Distribution(scored)
	require.Len(t, stats, 5)

	counts := []int{stats[0].Count, stats[1].Count, stats[2].Count, stats[3].Count, stats[4].Count}
	assert.Equal(t, []int{1, 1, 1, 2, 1}, counts)

	good := stats[3]
	assert.Equal(t, "[7.0-8.9] good", good.Band.Label)
	assert.InDelta(t, 33.3, good.Percentage, 0.1)
	assert.Equal(t, 1, good.AICount)
	assert.InDelta(t, 50.0, good.AIRate, 0.01)
	assert.Equal(t, 1, good.WatermarkCount)
	assert.InDelta(t, 50.0, good.WatermarkRate, 0.01)
}

func TestDistributionEmpty(t *testing.T) {
	stats := Distribution(nil)
	require.Len(t, stats, 5)
	for _, row := range stats {
		assert.Zero(t, row.Count)
		assert.Zero(t, row.Percentage)
		assert.Zero(t, row.AIRate)
	}
}

func TestShortFeedback(t *testing.T) {
	result := &ScoreResult{}
	result.Feedback = "A perfectly sharp landscape with natural lighting."

	assert.Equal(t, "A perfectly sha...", result.ShortFeedback(18))
	assert.Equal(t, result.Feedback, result.ShortFeedback(200))

	result.Feedback = "  "
	assert.Equal(t, "(no feedback)", result.ShortFeedback(18))
}
