package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoreFilter(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		score   float64
		matches bool
	}{
		{"greater than", ">:8.5", 9.0, true},
		{"greater than excludes boundary", ">:8.5", 8.5, false},
		{"less than", "<:5", 4.9, true},
		{"equals", "==:7.5", 7.5, true},
		{"greater or equal includes boundary", ">=:8.5", 8.5, true},
		{"less or equal", "<=:3", 3.0, true},
		{"between inside", "between:7:9", 8.0, true},
		{"between includes bounds", "between:7:9", 9.0, true},
		{"between outside", "between:7:9", 9.1, false},
		{"whitespace ignored", "> : 8.5", 9.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseScoreFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.matches, f.Matches(tt.score))
		})
	}
}

func TestParseScoreFilterErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"bare value", "8.5"},
		{"missing value", ">:"},
		{"non numeric value", ">:high"},
		{"unknown operator", "~:8.5"},
		{"between missing max", "between:7"},
		{"between extra part", "between:7:9:11"},
		{"between non numeric", "between:low:9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScoreFilter(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestScoreFilterString(t *testing.T) {
	f, err := ParseScoreFilter(">:8.5")
	require.NoError(t, err)
	assert.Equal(t, ">:8.5", f.String())

	f, err = ParseScoreFilter("between:7:9")
	require.NoError(t, err)
	assert.Equal(t, "between:7:9", f.String())
}

func TestCriteriaMatches(t *testing.T) {
	boolPtr := func(v bool) *bool { return &v }
	mustScore := func(expr string) *ScoreFilter {
		f, err := ParseScoreFilter(expr)
		require.NoError(t, err)
		return f
	}

	result := func(score float64, ai, watermark bool) *ScoreResult {
		eval := vlmEval(score, ai, watermark)
		return FromEvaluation("/photos/a.png", "run", &eval)
	}

	tests := []struct {
		name     string
		criteria Criteria
		result   *ScoreResult
		want     bool
	}{
		{
			name:     "score only",
			criteria: Criteria{Score: mustScore(">:8"), MatchAll: true},
			result:   result(8.5, false, false),
			want:     true,
		},
		{
			name: "all conditions hold",
			criteria: Criteria{
				Score:       mustScore(">=:8.5"),
				AIGenerated: boolPtr(false),
				Watermarked: boolPtr(false),
				MatchAll:    true,
			},
			result: result(9.0, false, false),
			want:   true,
		},
		{
			name: "one condition fails under all",
			criteria: Criteria{
				Score:       mustScore(">=:8.5"),
				AIGenerated: boolPtr(false),
				MatchAll:    true,
			},
			result: result(9.0, true, false),
			want:   false,
		},
		{
			name: "any mode needs one hit",
			criteria: Criteria{
				Score:       mustScore(">:9.5"),
				AIGenerated: boolPtr(true),
			},
			result: result(4.0, true, false),
			want:   true,
		},
		{
			name: "any mode with no hits",
			criteria: Criteria{
				Score:       mustScore(">:9.5"),
				Watermarked: boolPtr(true),
			},
			result: result(4.0, false, false),
			want:   false,
		},
		{
			name:     "empty criteria match nothing",
			criteria: Criteria{MatchAll: true},
			result:   result(9.9, false, false),
			want:     false,
		},
		{
			name:     "nil result",
			criteria: Criteria{Score: mustScore(">:1")},
			result:   nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(tt.result))
		})
	}
}

func TestCriteriaEmpty(t *testing.T) {
	assert.True(t, Criteria{}.Empty())

	ai := true
	assert.False(t, Criteria{AIGenerated: &ai}.Empty())

	f, err := ParseScoreFilter(">:5")
	require.NoError(t, err)
	assert.False(t, Criteria{Score: f}.Empty())
}
