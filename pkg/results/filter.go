package results

import (
	"fmt"
	"strconv"
	"strings"

	"vlmscore/pkg/errors"
)

// ScoreFilter is a parsed score condition such as ">:8.5" or
// "between:7:9".
type ScoreFilter struct {
	op  string
	min float64
	max float64
}

// scoreOps are the comparison operators a score expression may use,
// besides the three-part "between" form.
var scoreOps = map[string]struct{}{
	">": {}, "<": {}, "==": {}, ">=": {}, "<=": {},
}

// ParseScoreFilter parses a score expression of the form "OP:VALUE"
// (OP one of >, <, ==, >=, <=) or "between:MIN:MAX". Whitespace is
// ignored.
func ParseScoreFilter(expr string) (*ScoreFilter, error) {
	cleaned := strings.ReplaceAll(expr, " ", "")
	parts := strings.Split(cleaned, ":")

	if parts[0] == "between" {
		if len(parts) != 3 {
			return nil, errors.New(errors.ErrorTypeValidation,
				fmt.Sprintf("invalid score expression %q: between needs two values, like between:7:9", expr))
		}
		min, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, errors.New(errors.ErrorTypeValidation,
				fmt.Sprintf("invalid score expression %q: %q is not a number", expr, parts[1]))
		}
		max, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, errors.New(errors.ErrorTypeValidation,
				fmt.Sprintf("invalid score expression %q: %q is not a number", expr, parts[2]))
		}
		return &ScoreFilter{op: "between", min: min, max: max}, nil
	}

	if len(parts) != 2 {
		return nil, errors.New(errors.ErrorTypeValidation,
			fmt.Sprintf("invalid score expression %q: expected OP:VALUE or between:MIN:MAX", expr))
	}
	if _, ok := scoreOps[parts[0]]; !ok {
		return nil, errors.New(errors.ErrorTypeValidation,
			fmt.Sprintf("invalid score expression %q: unknown operator %q", expr, parts[0]))
	}
	value, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeValidation,
			fmt.Sprintf("invalid score expression %q: %q is not a number", expr, parts[1]))
	}
	return &ScoreFilter{op: parts[0], min: value}, nil
}

// Matches reports whether a score satisfies the condition.
func (f *ScoreFilter) Matches(score float64) bool {
	switch f.op {
	case "between":
		return score >= f.min && score <= f.max
	case ">":
		return score > f.min
	case "<":
		return score < f.min
	case "==":
		return score == f.min
	case ">=":
		return score >= f.min
	case "<=":
		return score <= f.min
	default:
		return false
	}
}

// String renders the condition back in expression form.
func (f *ScoreFilter) String() string {
	if f.op == "between" {
		return fmt.Sprintf("between:%g:%g", f.min, f.max)
	}
	return fmt.Sprintf("%s:%g", f.op, f.min)
}

// Criteria selects results by score, AI detection and watermark state.
// Nil fields are unconstrained. MatchAll requires every set condition
// to hold; otherwise one is enough.
type Criteria struct {
	Score       *ScoreFilter
	AIGenerated *bool
	Watermarked *bool
	MatchAll    bool
}

// Empty reports whether no condition is set. Empty criteria match
// nothing, so callers usually reject them up front.
func (c Criteria) Empty() bool {
	return c.Score == nil && c.AIGenerated == nil && c.Watermarked == nil
}

// Matches evaluates the set conditions against a result.
func (c Criteria) Matches(r *ScoreResult) bool {
	if r == nil {
		return false
	}

	var conditions []bool
	if c.Score != nil {
		conditions = append(conditions, c.Score.Matches(r.Score))
	}
	if c.AIGenerated != nil {
		conditions = append(conditions, r.IsAIGenerated == *c.AIGenerated)
	}
	if c.Watermarked != nil {
		conditions = append(conditions, r.WatermarkPresent == *c.Watermarked)
	}

	if len(conditions) == 0 {
		return false
	}

	if c.MatchAll {
		for _, ok := range conditions {
			if !ok {
				return false
			}
		}
		return true
	}

	for _, ok := range conditions {
		if ok {
			return true
		}
	}
	return false
}
