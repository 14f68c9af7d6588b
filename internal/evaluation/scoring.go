package evaluation

import (
	"github.com/agusespa/prsentinel/internal/types"
)

// Scorer grades a finished review against a case's expectations, from 0 to 1.
type Scorer interface {
	Score(expected Expected, review types.AggregatedReview, conclusion types.Conclusion) float64
}

// ScoringMetric grades one aspect. It returns -1 when the case does not check that aspect.
type ScoringMetric interface {
	Name() string
	Calculate(expected Expected, review types.AggregatedReview, conclusion types.Conclusion) float64
}

// SimpleScorer averages every applicable metric.
type SimpleScorer struct {
	metrics []ScoringMetric
}

func NewSimpleScorer() *SimpleScorer {
	return &SimpleScorer{metrics: []ScoringMetric{
		IssueFoundMetric{},
		IssueCountMetric{},
		SeverityMatchMetric{},
		CategoryMatchMetric{},
		FileMatchMetric{},
		CodeMatchMetric{},
		ConclusionMetric{},
	}}
}

func (s *SimpleScorer) Score(expected Expected, review types.AggregatedReview, conclusion types.Conclusion) float64 {
	var totalScore, applicableMetrics float64
	for _, metric := range s.metrics {
		score := metric.Calculate(expected, review, conclusion)
		if score >= 0 {
			totalScore += score
			applicableMetrics++
		}
	}

	if applicableMetrics == 0 {
		return 1.0
	}
	return totalScore / applicableMetrics
}

type IssueFoundMetric struct{}

func (IssueFoundMetric) Name() string { return "issue_found" }

func (IssueFoundMetric) Calculate(expected Expected, review types.AggregatedReview, _ types.Conclusion) float64 {
	if expected.ShouldFindIssues == (len(review.Issues) > 0) {
		return 1.0
	}
	return 0.0
}

type IssueCountMetric struct{}

func (IssueCountMetric) Name() string { return "issue_count" }

func (IssueCountMetric) Calculate(expected Expected, review types.AggregatedReview, _ types.Conclusion) float64 {
	if expected.MinIssues == 0 && expected.MaxIssues == 0 {
		return -1.0
	}

	count := len(review.Issues)
	minOk := expected.MinIssues == 0 || count >= expected.MinIssues
	maxOk := expected.MaxIssues == 0 || count <= expected.MaxIssues
	if minOk && maxOk {
		return 1.0
	}
	return 0.0
}

type SeverityMatchMetric struct{}

func (SeverityMatchMetric) Name() string { return "severity_match" }

func (SeverityMatchMetric) Calculate(expected Expected, review types.AggregatedReview, _ types.Conclusion) float64 {
	return fractionFound(expected.Severities, review.Issues, func(i types.Issue) types.Severity { return i.Severity })
}

type CategoryMatchMetric struct{}

func (CategoryMatchMetric) Name() string { return "category_match" }

func (CategoryMatchMetric) Calculate(expected Expected, review types.AggregatedReview, _ types.Conclusion) float64 {
	return fractionFound(expected.Categories, review.Issues, func(i types.Issue) types.Category { return i.Category })
}

type FileMatchMetric struct{}

func (FileMatchMetric) Name() string { return "file_match" }

func (FileMatchMetric) Calculate(expected Expected, review types.AggregatedReview, _ types.Conclusion) float64 {
	return fractionFound(expected.Files, review.Issues, func(i types.Issue) string { return i.Location.File })
}

type CodeMatchMetric struct{}

func (CodeMatchMetric) Name() string { return "code_match" }

func (CodeMatchMetric) Calculate(expected Expected, review types.AggregatedReview, _ types.Conclusion) float64 {
	return fractionFound(expected.Codes, review.Issues, func(i types.Issue) string { return i.Code })
}

type ConclusionMetric struct{}

func (ConclusionMetric) Name() string { return "conclusion" }

func (ConclusionMetric) Calculate(expected Expected, _ types.AggregatedReview, conclusion types.Conclusion) float64 {
	if expected.Conclusion == "" {
		return -1.0
	}
	if expected.Conclusion == conclusion {
		return 1.0
	}
	return 0.0
}

// fractionFound returns the share of wanted values that some issue carries, or -1 when
// nothing is wanted.
func fractionFound[T comparable](wanted []T, issues []types.Issue, field func(types.Issue) T) float64 {
	if len(wanted) == 0 {
		return -1.0
	}

	actual := make(map[T]bool, len(issues))
	for _, issue := range issues {
		actual[field(issue)] = true
	}

	matchCount := 0
	for _, w := range wanted {
		if actual[w] {
			matchCount++
		}
	}
	return float64(matchCount) / float64(len(wanted))
}
