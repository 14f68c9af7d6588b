package aggregate

import (
	"math/rand"
	"testing"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFiles    = []string{"a.ts", "b.ts", "c.go"}
	testMessages = []string{"SQL injection", "var usage", "Unused import", "Long function"}
)

// randomIssues builds a list with plenty of key collisions.
func randomIssues(r *rand.Rand, n int) []types.Issue {
	issues := make([]types.Issue, n)
	for i := range issues {
		issues[i] = types.NewIssue(
			types.Severities[r.Intn(len(types.Severities))],
			types.Categories[r.Intn(len(types.Categories))],
			testFiles[r.Intn(len(testFiles))],
			r.Intn(4),
			testMessages[r.Intn(len(testMessages))],
		)
	}
	return issues
}

func TestDedup_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		issues := randomIssues(r, r.Intn(30))
		once := Dedup(issues)
		assert.Equal(t, once, Dedup(once))
	}
}

func TestDedup_KeepsFirstSeen(t *testing.T) {
	first := types.NewIssue(types.SeverityLow, types.CategoryStyle, "a.ts", 10, "SQL injection")
	second := types.NewIssue(types.SeverityCritical, types.CategorySecurity, "a.ts", 10, "SQL injection")

	deduped := Dedup([]types.Issue{first, second})

	require.Len(t, deduped, 1)
	assert.Equal(t, types.SeverityLow, deduped[0].Severity)
}

func TestDedup_KeyIncludesLine(t *testing.T) {
	issues := []types.Issue{
		types.NewIssue(types.SeverityLow, types.CategoryStyle, "a.ts", 1, "x"),
		types.NewIssue(types.SeverityLow, types.CategoryStyle, "a.ts", 2, "x"),
		types.NewIssue(types.SeverityLow, types.CategoryStyle, "b.ts", 1, "x"),
		types.NewIssue(types.SeverityLow, types.CategoryStyle, "a.ts", 1, "y"),
	}

	assert.Len(t, Dedup(issues), 4)
}

func TestDedup_FileLevelIssuesUseFileAndMessage(t *testing.T) {
	issues := []types.Issue{
		types.NewIssue(types.SeverityMedium, types.CategoryMaintainability, "a.ts", 0, "Too complex"),
		types.NewIssue(types.SeverityHigh, types.CategoryMaintainability, "a.ts", 0, "Too complex"),
		types.NewIssue(types.SeverityMedium, types.CategoryMaintainability, "a.ts", 3, "Too complex"),
	}

	deduped := Dedup(issues)

	require.Len(t, deduped, 2, "a lined issue never collapses into a file-level one")
	assert.Equal(t, types.SeverityMedium, deduped[0].Severity)
	assert.Equal(t, 3, deduped[1].Location.Line)
}

func TestAggregate_ProducerOrderDecidesSurvivor(t *testing.T) {
	ai := []types.Issue{types.NewIssue(types.SeverityHigh, types.CategoryBug, "a.ts", 5, "Null deref")}
	static := [][]types.Issue{{types.NewIssue(types.SeverityLow, types.CategoryBug, "a.ts", 5, "Null deref")}}
	security := []types.Issue{types.NewIssue(types.SeverityCritical, types.CategorySecurity, "a.ts", 5, "Null deref")}

	review := Aggregate(ProducerResults(ai, static, security), 70, types.AIReview{}, DefaultPenalties())

	require.Len(t, review.Issues, 1)
	assert.Equal(t, types.SeverityHigh, review.Issues[0].Severity, "AI issues are merged first")
}

func TestSortBySeverity_StableAndOrdered(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		issues := randomIssues(r, r.Intn(40))
		// Tag each issue with its input position to observe stability.
		for idx := range issues {
			issues[idx].Location.Column = idx + 1
		}

		sorted := SortBySeverity(issues)

		require.Len(t, sorted, len(issues))
		for j := 0; j+1 < len(sorted); j++ {
			a, b := sorted[j], sorted[j+1]
			require.LessOrEqual(t, a.Severity.Rank(), b.Severity.Rank())
			if a.Severity == b.Severity {
				require.Less(t, a.Location.Column, b.Location.Column, "equal severities keep input order")
			}
		}
	}
}

func TestSortBySeverity_DoesNotMutateInput(t *testing.T) {
	issues := []types.Issue{
		types.NewIssue(types.SeverityInfo, types.CategoryStyle, "a", 1, "x"),
		types.NewIssue(types.SeverityCritical, types.CategoryBug, "a", 2, "y"),
	}

	_ = SortBySeverity(issues)

	assert.Equal(t, types.SeverityInfo, issues[0].Severity)
}

func TestScore_Clamped(t *testing.T) {
	tests := []struct {
		name     string
		base     int
		issues   []types.Issue
		expected int
	}{
		{"no issues", 70, nil, 70},
		{"penalties below zero", 15, repeat(types.SeverityCritical, 5), 0},
		{"base above 100", 150, nil, 100},
		{"negative base", -20, nil, 0},
		{"info is free", 80, repeat(types.SeverityInfo, 30), 80},
		{"mixed", 100, []types.Issue{
			issueWith(types.SeverityCritical), issueWith(types.SeverityHigh),
			issueWith(types.SeverityMedium), issueWith(types.SeverityLow),
		}, 82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.issues, tt.base, DefaultPenalties())
			assert.Equal(t, tt.expected, score)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		})
	}
}

func TestScore_ClampedForAnyInput(t *testing.T) {
	r := rand.New(rand.NewSource(99))

	for i := 0; i < 500; i++ {
		base := r.Intn(400) - 150
		score := Score(randomIssues(r, r.Intn(50)), base, DefaultPenalties())
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, 100)
	}
}

func TestScore_MonotonicInCriticalIssues(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		issues := randomIssues(r, r.Intn(20))
		base := r.Intn(200) - 50

		before := Score(issues, base, DefaultPenalties())
		after := Score(append(issues, issueWith(types.SeverityCritical)), base, DefaultPenalties())

		require.LessOrEqual(t, after, before)
	}
}

func TestAggregate_ScenarioA(t *testing.T) {
	sqlInjection := types.NewIssue(types.SeverityCritical, types.CategorySecurity, "a.ts", 10, "SQL injection")
	varUsage := types.NewIssue(types.SeverityLow, types.CategoryStyle, "b.ts", 2, "var usage")

	results := ProducerResults(
		[]types.Issue{sqlInjection},
		[][]types.Issue{{varUsage}},
		[]types.Issue{sqlInjection},
	)

	review := Aggregate(results, 85, types.AIReview{Summary: "ok"}, DefaultPenalties())

	require.Len(t, review.Issues, 2)
	assert.Equal(t, 74, review.OverallScore)
	assert.Equal(t, "SQL injection", review.Issues[0].Message)
	assert.Equal(t, "var usage", review.Issues[1].Message)
	assert.Equal(t, "ok", review.Summary)
}

func TestAggregate_ScenarioB(t *testing.T) {
	review := Aggregate(ProducerResults(nil, nil, nil), 90, types.AIReview{}, DefaultPenalties())

	assert.Empty(t, review.Issues)
	assert.Equal(t, 90, review.OverallScore)
	assert.NotNil(t, review.PositiveFindings)
	assert.NotNil(t, review.Recommendations)
}

func TestAggregate_ZeroProducers(t *testing.T) {
	review := Aggregate(nil, 120, types.AIReview{}, DefaultPenalties())

	assert.Empty(t, review.Issues)
	assert.Equal(t, 100, review.OverallScore)
}

func TestAggregate_FallbackPassThrough(t *testing.T) {
	fallback := types.FallbackAIReview()

	review := Aggregate(ProducerResults(fallback.Issues, nil, nil), fallback.OverallScore, fallback, DefaultPenalties())

	assert.Equal(t, 50, review.OverallScore)
	assert.Equal(t, types.FallbackSummary, review.Summary)
	assert.Equal(t, []string{types.FallbackRecommendation}, review.Recommendations)
}

func TestAggregate_NormalizesMalformedIssues(t *testing.T) {
	malformed := types.Issue{Severity: "urgent!!", Category: "???", Location: types.Location{Line: -3}}

	review := Aggregate([][]types.Issue{{malformed}}, 70, types.AIReview{}, DefaultPenalties())

	require.Len(t, review.Issues, 1)
	issue := review.Issues[0]
	assert.Equal(t, types.SeverityMedium, issue.Severity)
	assert.Equal(t, types.CategoryMaintainability, issue.Category)
	assert.Equal(t, types.UnknownFile, issue.Location.File)
	assert.Equal(t, types.UnspecifiedMessage, issue.Message)
	assert.Equal(t, 68, review.OverallScore)
}

func TestAggregate_CustomPenalties(t *testing.T) {
	penalties := DefaultPenalties()
	penalties[types.SeverityLow] = 3

	review := Aggregate([][]types.Issue{{issueWith(types.SeverityLow)}}, 70, types.AIReview{}, penalties)

	assert.Equal(t, 67, review.OverallScore)
}

func issueWith(severity types.Severity) types.Issue {
	return types.NewIssue(severity, types.CategoryBug, "x.go", 1, string(severity)+" finding")
}

func repeat(severity types.Severity, n int) []types.Issue {
	issues := make([]types.Issue, n)
	for i := range issues {
		issues[i] = types.NewIssue(severity, types.CategoryBug, "x.go", i+1, "finding")
	}
	return issues
}
