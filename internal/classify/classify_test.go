package classify

import (
	"testing"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_BlockingRule(t *testing.T) {
	policy := DefaultBlockingPolicy()

	for _, severity := range types.Severities {
		for _, category := range types.Categories {
			issue := types.NewIssue(severity, category, "a.go", 1, "x")
			expected := severity == types.SeverityCritical ||
				(severity == types.SeverityHigh && category == types.CategorySecurity)

			c := Classify(types.AggregatedReview{Issues: []types.Issue{issue}}, policy)

			assert.Equal(t, expected, len(c.Blocking) == 1, "%s/%s", severity, category)
			assert.Len(t, c.Blocking, 1-len(c.Advisory), "%s/%s is in exactly one set", severity, category)
		}
	}
}

func TestClassify_Partition(t *testing.T) {
	issues := []types.Issue{
		types.NewIssue(types.SeverityCritical, types.CategoryBug, "a.go", 1, "crash"),
		types.NewIssue(types.SeverityHigh, types.CategorySecurity, "a.go", 2, "xss"),
		types.NewIssue(types.SeverityHigh, types.CategoryBug, "a.go", 3, "race"),
		{Severity: types.SeverityLow, Category: types.CategoryBestPractice, Message: "var", Location: types.Location{File: "a.js", Line: 4}, AutoFixable: true, Code: "no-var"},
		{Severity: types.SeverityInfo, Category: types.CategoryStyle, Message: "custom", Location: types.Location{File: "a.js", Line: 5}, AutoFixable: true, Code: "made-up-rule"},
	}

	c := Classify(types.AggregatedReview{Issues: issues}, DefaultBlockingPolicy())

	require.Len(t, c.Blocking, 2)
	assert.Equal(t, "crash", c.Blocking[0].Message)
	assert.Equal(t, "xss", c.Blocking[1].Message)

	require.Len(t, c.Advisory, 3)
	assert.Equal(t, "race", c.Advisory[0].Message)

	require.Len(t, c.AutoFixable, 2, "unknown codes are still classified auto-fixable")
	assert.Equal(t, "no-var", c.AutoFixable[0].Code)
	assert.Equal(t, "made-up-rule", c.AutoFixable[1].Code)
}

func TestClassify_ScenarioB(t *testing.T) {
	c := Classify(types.AggregatedReview{OverallScore: 90}, DefaultBlockingPolicy())

	assert.Empty(t, c.Blocking)
	assert.Empty(t, c.AutoFixable)
	assert.Empty(t, c.Advisory)
	assert.NotNil(t, c.Blocking)
}

func TestClassify_CustomPolicy(t *testing.T) {
	policy := BlockingPolicy{Severities: []types.Severity{types.SeverityCritical, types.SeverityHigh}}
	issue := types.NewIssue(types.SeverityHigh, types.CategoryPerformance, "a.go", 1, "n+1 query")

	c := Classify(types.AggregatedReview{Issues: []types.Issue{issue}}, policy)

	assert.Len(t, c.Blocking, 1)
}

func TestIsWhitelisted(t *testing.T) {
	for _, code := range []string{"no-var", "no-console", "no-debugger", "missing-semicolon", "trailing-whitespace", "double-quotes"} {
		assert.True(t, IsWhitelisted(code), code)
	}
	assert.False(t, IsWhitelisted("eqeqeq"))
	assert.False(t, IsWhitelisted(""))
}
