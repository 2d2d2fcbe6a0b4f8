package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// requiredFields are the keys every sidecar must carry and the JSON
// type each must have, in report order.
var requiredFields = []struct {
	name string
	typ  string
}{
	{"is_ai_generated", "bool"},
	{"watermark_present", "bool"},
	{"watermark_location", "string"},
	{"score", "number"},
	{"feedback", "string"},
	{"api_usage", "object"},
	{"api_provider", "string"},
}

// requiredUsageFields are the token counters api_usage must carry.
var requiredUsageFields = []string{"prompt_tokens", "completion_tokens", "total_tokens"}

// ValidationStats aggregates sidecar validation over a result tree.
// Each error counter counts files, not individual findings; a file with
// three missing fields raises FieldErrors by one.
type ValidationStats struct {
	TotalFiles   int
	ValidFiles   int
	InvalidFiles int
	ParseErrors  int
	FieldErrors  int
	TypeErrors   int
	RangeErrors  int
}

// SuccessRate returns the share of valid files as a percentage.
func (s ValidationStats) SuccessRate() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.ValidFiles) / float64(s.TotalFiles) * 100
}

// FileReport is the validation outcome for one sidecar file.
type FileReport struct {
	Path     string
	Valid    bool
	Errors   []string
	Warnings []string

	// Result holds the decoded sidecar when the file is valid.
	Result *ScoreResult
}

// Validator checks sidecar files against the result schema: required
// fields present, correctly typed and inside their legal ranges. It
// accumulates statistics across files for the summary report.
type Validator struct {
	expectedProvider string
	stats            ValidationStats
	invalid          []FileReport
}

// NewValidator creates a validator. When expectedProvider is non-empty,
// sidecars recorded against a different provider get a warning; mixed
// trees usually mean two endpoints scored the same batch.
func NewValidator(expectedProvider string) *Validator {
	return &Validator{expectedProvider: expectedProvider}
}

// ValidateFile checks a single sidecar file and folds the outcome into
// the running statistics.
func (v *Validator) ValidateFile(path string) FileReport {
	v.stats.TotalFiles++

	report := FileReport{Path: path, Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf("failed to read file: %v", err))
		v.recordInvalid(report)
		return report
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf("invalid JSON: %v", err))
		v.stats.ParseErrors++
		v.recordInvalid(report)
		return report
	}

	if errs := missingFieldErrors(raw); len(errs) > 0 {
		report.Errors = append(report.Errors, errs...)
		report.Valid = false
		v.stats.FieldErrors++
	}
	if errs := fieldTypeErrors(raw); len(errs) > 0 {
		report.Errors = append(report.Errors, errs...)
		report.Valid = false
		v.stats.TypeErrors++
	}
	if errs := valueRangeErrors(raw); len(errs) > 0 {
		report.Errors = append(report.Errors, errs...)
		report.Valid = false
		v.stats.RangeErrors++
	}

	report.Warnings = v.collectWarnings(raw)

	if !report.Valid {
		v.recordInvalid(report)
		return report
	}

	var result ScoreResult
	if err := json.Unmarshal(data, &result); err == nil {
		report.Result = &result
	}
	v.stats.ValidFiles++
	return report
}

// ValidateAll checks every path and returns the per-file reports in the
// same order.
func (v *Validator) ValidateAll(paths []string) []FileReport {
	reports := make([]FileReport, 0, len(paths))
	for _, path := range paths {
		reports = append(reports, v.ValidateFile(path))
	}
	return reports
}

// Stats returns the accumulated validation statistics.
func (v *Validator) Stats() ValidationStats {
	return v.stats
}

// InvalidReports returns the reports of every file that failed, in the
// order they were validated.
func (v *Validator) InvalidReports() []FileReport {
	return v.invalid
}

func (v *Validator) recordInvalid(report FileReport) {
	v.stats.InvalidFiles++
	v.invalid = append(v.invalid, report)
}

func missingFieldErrors(raw map[string]interface{}) []string {
	var errs []string
	for _, field := range requiredFields {
		if _, ok := raw[field.name]; !ok {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field.name))
		}
	}

	if usage, ok := raw["api_usage"].(map[string]interface{}); ok {
		for _, field := range requiredUsageFields {
			if _, ok := usage[field]; !ok {
				errs = append(errs, fmt.Sprintf("api_usage missing field: %s", field))
			}
		}
	}

	return errs
}

func fieldTypeErrors(raw map[string]interface{}) []string {
	var errs []string
	for _, field := range requiredFields {
		value, ok := raw[field.name]
		if !ok {
			continue
		}
		if got := jsonTypeName(value); got != field.typ {
			errs = append(errs, fmt.Sprintf("field %s has wrong type: expected %s, got %s", field.name, field.typ, got))
		}
	}

	if usage, ok := raw["api_usage"].(map[string]interface{}); ok {
		for _, field := range requiredUsageFields {
			value, ok := usage[field]
			if !ok {
				continue
			}
			number, isNumber := value.(json.Number)
			if !isNumber {
				errs = append(errs, fmt.Sprintf("api_usage.%s has wrong type: expected integer, got %s", field, jsonTypeName(value)))
				continue
			}
			if _, err := number.Int64(); err != nil {
				errs = append(errs, fmt.Sprintf("api_usage.%s has wrong type: expected integer, got %s", field, number.String()))
			}
		}
	}

	return errs
}

func valueRangeErrors(raw map[string]interface{}) []string {
	var errs []string

	if score, ok := numberValue(raw["score"]); ok {
		if score < 0 || score > 10 {
			errs = append(errs, fmt.Sprintf("score out of range: %v (expected 0 to 10)", score))
		}
	}

	if usage, ok := raw["api_usage"].(map[string]interface{}); ok {
		for _, field := range requiredUsageFields {
			number, isNumber := usage[field].(json.Number)
			if !isNumber {
				continue
			}
			if tokens, err := number.Int64(); err == nil && tokens < 0 {
				errs = append(errs, fmt.Sprintf("api_usage.%s is negative: %d", field, tokens))
			}
		}
	}

	return errs
}

func (v *Validator) collectWarnings(raw map[string]interface{}) []string {
	var warnings []string

	if feedback, ok := raw["feedback"].(string); ok && strings.TrimSpace(feedback) == "" {
		warnings = append(warnings, "feedback is empty")
	}

	if score, ok := numberValue(raw["score"]); ok && score >= 0 && score < 3.0 {
		warnings = append(warnings, fmt.Sprintf("low score: %v", score))
	}

	if v.expectedProvider != "" {
		if provider, ok := raw["api_provider"].(string); ok && provider != v.expectedProvider {
			warnings = append(warnings, fmt.Sprintf("unexpected api_provider: %s", provider))
		}
	}

	return warnings
}

func numberValue(value interface{}) (float64, bool) {
	number, ok := value.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := number.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func jsonTypeName(value interface{}) string {
	switch value.(type) {
	case bool:
		return "bool"
	case string:
		return "string"
	case json.Number:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
