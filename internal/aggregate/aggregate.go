// Package aggregate merges the issue lists of every producer into one deduplicated, severity
// ordered and scored review. Everything here is a pure function of its inputs.
package aggregate

import (
	"sort"

	"github.com/agusespa/prsentinel/internal/types"
)

// Penalties is the score deduction per surviving issue, by severity.
type Penalties map[types.Severity]int

func DefaultPenalties() Penalties {
	return Penalties{
		types.SeverityCritical: 10,
		types.SeverityHigh:     5,
		types.SeverityMedium:   2,
		types.SeverityLow:      1,
		types.SeverityInfo:     0,
	}
}

// ProducerResults lays out producer outputs in merge order: AI issues first, then each static
// analyzer in registry order, then the security scanner. The order decides which duplicate
// survives dedup.
func ProducerResults(ai []types.Issue, static [][]types.Issue, security []types.Issue) [][]types.Issue {
	results := make([][]types.Issue, 0, len(static)+2)
	results = append(results, ai)
	results = append(results, static...)
	results = append(results, security)
	return results
}

// Aggregate concatenates producerResults in the order given, drops duplicates, sorts the
// survivors by severity and scores them against baseScore. Summary, positive findings and
// recommendations are taken from ai unchanged.
func Aggregate(producerResults [][]types.Issue, baseScore int, ai types.AIReview, penalties Penalties) types.AggregatedReview {
	var all []types.Issue
	for _, issues := range producerResults {
		all = append(all, types.NormalizeIssues(issues)...)
	}

	issues := SortBySeverity(Dedup(all))

	return types.AggregatedReview{
		Issues:           issues,
		OverallScore:     Score(issues, baseScore, penalties),
		Summary:          ai.Summary,
		PositiveFindings: nonNil(ai.PositiveFindings),
		Recommendations:  nonNil(ai.Recommendations),
	}
}

// Dedup keeps the first issue seen for each (file, line, message) key, or (file, message)
// when the issue has no line.
func Dedup(issues []types.Issue) []types.Issue {
	seen := make(map[types.DedupKey]struct{}, len(issues))
	unique := make([]types.Issue, 0, len(issues))

	for _, issue := range issues {
		key := issue.Key()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, issue)
	}

	return unique
}

// SortBySeverity returns a copy of issues ordered critical first. Issues of equal severity
// keep their relative order.
func SortBySeverity(issues []types.Issue) []types.Issue {
	sorted := make([]types.Issue, len(issues))
	copy(sorted, issues)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})

	return sorted
}

// Score subtracts the penalty of every issue from baseScore and clamps the result to [0,100].
// Severities missing from penalties cost nothing.
func Score(issues []types.Issue, baseScore int, penalties Penalties) int {
	score := baseScore
	for _, issue := range issues {
		score -= penalties[issue.Severity]
	}
	return types.ClampScore(score)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
