// Package report turns an aggregated review into the check-run conclusion, the PR summary
// comment, inline review comments and check-run annotations.
package report

import (
	"fmt"

	"github.com/agusespa/prsentinel/internal/types"
)

// Policy holds the check-run thresholds.
type Policy struct {
	// NeutralThreshold is the issue count above which a non-blocking review is neutral.
	NeutralThreshold int `yaml:"neutral_threshold"`
}

func DefaultPolicy() Policy {
	return Policy{NeutralThreshold: 10}
}

// Decision is the check-run conclusion and its one-line description.
type Decision struct {
	Conclusion  types.Conclusion `json:"conclusion"`
	Description string           `json:"description"`
}

// DecideConclusion fails the check when anything blocks, goes neutral when the issue count
// exceeds the policy threshold and succeeds otherwise.
func DecideConclusion(review types.AggregatedReview, blockingCount, securityCount int, policy Policy) Decision {
	total := len(review.Issues)

	conclusion := types.ConclusionSuccess
	switch {
	case blockingCount > 0:
		conclusion = types.ConclusionFailure
	case total > policy.NeutralThreshold:
		conclusion = types.ConclusionNeutral
	}

	return Decision{
		Conclusion: conclusion,
		Description: fmt.Sprintf("Score %d/100: %d blocking, %d security, %d total issues",
			review.OverallScore, blockingCount, securityCount, total),
	}
}

// Title is the short check-run title.
func (d Decision) Title(score int) string {
	switch d.Conclusion {
	case types.ConclusionFailure:
		return fmt.Sprintf("Blocking issues found (score %d/100)", score)
	case types.ConclusionNeutral:
		return fmt.Sprintf("Review passed with many findings (score %d/100)", score)
	default:
		return fmt.Sprintf("Review passed (score %d/100)", score)
	}
}

func severityIcon(severity types.Severity) string {
	switch severity {
	case types.SeverityCritical:
		return "🔴"
	case types.SeverityHigh:
		return "🟠"
	case types.SeverityMedium:
		return "🟡"
	case types.SeverityLow:
		return "🔵"
	default:
		return "⚪️"
	}
}

func conclusionIcon(conclusion types.Conclusion) string {
	switch conclusion {
	case types.ConclusionFailure:
		return "❌"
	case types.ConclusionNeutral:
		return "⚠️"
	default:
		return "✅"
	}
}
