package vlm

import (
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"vlmscore/pkg/errors"
)

// ErrNoResult reports model output that contains no recognizable result
// block in any form the parser understands.
var ErrNoResult = stderrors.New("no result block in model output")

// resultBlockPatterns are tried in order. Models occasionally wrap the
// block in a code fence or stop generating before the closing tag, so
// the later patterns recover those shapes.
var resultBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<result>.*?</result>`),
	regexp.MustCompile("(?s)```xml\\s*(<result>.*?</result>)\\s*```"),
	regexp.MustCompile("(?s)```\\s*(<result>.*?</result>)\\s*```"),
	regexp.MustCompile(`(?s)<result>.*`),
}

var resultFieldNames = []string{
	"is_ai_generated",
	"watermark_present",
	"watermark_location",
	"score",
	"feedback",
}

var resultFieldPatterns = buildFieldPatterns()

var scorePattern = regexp.MustCompile(`\d+\.?\d*`)

func buildFieldPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(resultFieldNames))
	for _, name := range resultFieldNames {
		patterns[name] = regexp.MustCompile(fmt.Sprintf(`(?is)<%s>\s*(.*?)\s*</%s>`, name, name))
	}
	return patterns
}

// ParseEvaluation extracts the scoring verdict from raw model output.
// The output usually holds prose analysis followed by an XML result
// block; missing optional fields fall back to neutral defaults. An
// error wrapping ErrNoResult is returned when no block or loose result
// fields can be found at all.
func ParseEvaluation(content string) (*Evaluation, error) {
	block, ok := extractResultBlock(content)
	if !ok {
		return nil, errors.Wrap(errors.ErrorTypeParsing,
			fmt.Sprintf("model output has no result block: %s", truncate(content, 500)),
			ErrNoResult)
	}

	fields := parseResultFields(block)

	return &Evaluation{
		IsAIGenerated:     parseLenientBool(fields["is_ai_generated"]),
		WatermarkPresent:  parseLenientBool(fields["watermark_present"]),
		WatermarkLocation: valueOr(fields["watermark_location"], "none"),
		Score:             parseScore(fields["score"]),
		Feedback:          strings.TrimSpace(fields["feedback"]),
	}, nil
}

// extractResultBlock finds the XML result block in the model output,
// repairing a missing closing tag when generation was cut short. When
// no block exists it falls back to collecting loose result fields.
func extractResultBlock(content string) (string, bool) {
	for _, pattern := range resultBlockPatterns {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		block := m[0]
		if len(m) > 1 && m[1] != "" {
			block = m[1]
		}
		if !strings.HasSuffix(block, "</result>") {
			block += "</result>"
		}
		return block, true
	}

	// No wrapper at all. Rebuild a block from any recognizable fields.
	var sb strings.Builder
	found := false
	for _, name := range resultFieldNames {
		if m := resultFieldPatterns[name].FindStringSubmatch(content); m != nil {
			fmt.Fprintf(&sb, "<%s>%s</%s>\n", name, m[1], name)
			found = true
		}
	}
	if !found {
		return "", false
	}
	return "<result>\n" + sb.String() + "</result>", true
}

// parseResultFields reads the block as XML first and falls back to
// tag-by-tag scanning. Model output is rarely well formed, unescaped
// ampersands in feedback text are common.
func parseResultFields(block string) map[string]string {
	var parsed struct {
		XMLName           xml.Name `xml:"result"`
		IsAIGenerated     string   `xml:"is_ai_generated"`
		WatermarkPresent  string   `xml:"watermark_present"`
		WatermarkLocation string   `xml:"watermark_location"`
		Score             string   `xml:"score"`
		Feedback          string   `xml:"feedback"`
	}
	if err := xml.Unmarshal([]byte(block), &parsed); err == nil {
		return map[string]string{
			"is_ai_generated":    parsed.IsAIGenerated,
			"watermark_present":  parsed.WatermarkPresent,
			"watermark_location": parsed.WatermarkLocation,
			"score":              parsed.Score,
			"feedback":           parsed.Feedback,
		}
	}

	fields := make(map[string]string, len(resultFieldNames))
	for _, name := range resultFieldNames {
		if m := resultFieldPatterns[name].FindStringSubmatch(block); m != nil {
			fields[name] = m[1]
		}
	}
	return fields
}

// parseLenientBool coerces the loose spellings models produce
func parseLenientBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// parseScore pulls the first number out of the score field, rounds it
// to one decimal place, and clamps it to the 0 to 10 scale. A score
// that cannot be parsed becomes 0.
func parseScore(s string) float64 {
	m := scorePattern.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	v = math.Round(v*10) / 10
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return v
}

func valueOr(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// truncate caps s at n runes for error messages and log previews
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
