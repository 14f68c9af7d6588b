package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	for i, sev := range Severities {
		assert.Equal(t, i, sev.Rank(), "rank of %s", sev)
	}
	assert.Equal(t, 2, Severity("bogus").Rank())
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"CRITICAL": SeverityCritical,
		" high ":   SeverityHigh,
		"warning":  SeverityMedium,
		"MINOR":    SeverityLow,
		"info":     SeverityInfo,
		"":         SeverityMedium,
		"whatever": SeverityMedium,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSeverity(in), "input %q", in)
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryBestPractice, ParseCategory("best_practice"))
	assert.Equal(t, CategoryBestPractice, ParseCategory("Best Practice"))
	assert.Equal(t, CategorySecurity, ParseCategory("SECURITY"))
	assert.Equal(t, CategoryMaintainability, ParseCategory("architecture"))
	assert.Equal(t, CategoryMaintainability, ParseCategory(""))
}

func TestIssueUnmarshalCoercesInvalidEnums(t *testing.T) {
	raw := `{"severity":"severe","category":42,"message":"x","location":{"file":"a.go","line":3}}`

	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(raw), &issue))

	assert.Equal(t, SeverityMedium, issue.Severity)
	assert.Equal(t, CategoryMaintainability, issue.Category)
	assert.Equal(t, 3, issue.Location.Line)
}

func TestIssueNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Issue
		expected Issue
	}{
		{
			name: "missing file and message",
			in:   Issue{Severity: "", Category: ""},
			expected: Issue{
				Severity: SeverityMedium,
				Category: CategoryMaintainability,
				Message:  UnspecifiedMessage,
				Location: Location{File: UnknownFile},
			},
		},
		{
			name: "end line before start line",
			in: Issue{
				Severity: SeverityLow, Category: CategoryStyle, Message: "m",
				Location: Location{File: "a.ts", Line: 10, EndLine: 4},
			},
			expected: Issue{
				Severity: SeverityLow, Category: CategoryStyle, Message: "m",
				Location: Location{File: "a.ts", Line: 10, EndLine: 10},
			},
		},
		{
			name: "negative line is dropped",
			in: Issue{
				Severity: SeverityInfo, Category: CategoryBug, Message: " padded ",
				Location: Location{File: "b.py", Line: -3, EndLine: 5},
			},
			expected: Issue{
				Severity: SeverityInfo, Category: CategoryBug, Message: "padded",
				Location: Location{File: "b.py"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalize())
		})
	}
}

func TestIssueKey(t *testing.T) {
	withLine := NewIssue(SeverityHigh, CategoryBug, "a.ts", 10, "boom")
	sameLineOtherSeverity := NewIssue(SeverityLow, CategoryStyle, "a.ts", 10, "boom")
	noLine := NewIssue(SeverityHigh, CategoryBug, "a.ts", 0, "boom")

	assert.Equal(t, withLine.Key(), sameLineOtherSeverity.Key())
	assert.NotEqual(t, withLine.Key(), noLine.Key())
}

func TestScoreFromAny(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{85, 85},
		{-5, 0},
		{250, 100},
		{72.6, 73},
		{"64", 64},
		{"not a number", FallbackScore},
		{nil, FallbackScore},
		{math.NaN(), FallbackScore},
		{json.Number("91"), 91},
		{map[string]any{}, FallbackScore},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreFromAny(tt.in), "input %v", tt.in)
	}
}

func TestFallbackAIReview(t *testing.T) {
	fb := FallbackAIReview()

	assert.Equal(t, 50, fb.OverallScore)
	assert.Equal(t, "Review completed with parsing issues. Please check manually.", fb.Summary)
	assert.Equal(t, []string{"Manual review recommended due to parsing error"}, fb.Recommendations)
	assert.Empty(t, fb.Issues)
	assert.Empty(t, fb.PositiveFindings)
	assert.True(t, fb.Fallback)
}
