package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
)

// CommentMarker tags the bot's summary comment so it can be found again.
const CommentMarker = "<!-- prsentinel-review -->"

const maxTopIssues = 10

// SummaryComment renders the PR summary comment as markdown. complexity may be nil.
func SummaryComment(review types.AggregatedReview, classification types.Classification, decision Decision, complexity map[string]types.ComplexityMetrics) string {
	counts := types.CountBySeverity(review.Issues)
	securityCount := types.CountSecurity(review.Issues)

	var reportBuilder strings.Builder
	reportBuilder.WriteString(CommentMarker + "\n")
	reportBuilder.WriteString("# PR Sentinel Review\n\n")
	reportBuilder.WriteString(fmt.Sprintf("%s **Overall score:** %d/100 (%s)\n\n", conclusionIcon(decision.Conclusion), review.OverallScore, decision.Conclusion))
	reportBuilder.WriteString(fmt.Sprintf("%s\n\n", decision.Description))

	reportBuilder.WriteString("| Total issues | Critical | Security | Blocking | Auto-fixable |\n")
	reportBuilder.WriteString("|---|---|---|---|---|\n")
	reportBuilder.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n\n",
		len(review.Issues), counts[types.SeverityCritical], securityCount,
		len(classification.Blocking), len(classification.AutoFixable)))

	if review.Summary != "" {
		reportBuilder.WriteString("## Summary\n\n")
		reportBuilder.WriteString(review.Summary + "\n\n")
	}

	if len(review.Issues) > 0 {
		reportBuilder.WriteString("## Issues by severity\n\n")
		reportBuilder.WriteString("| Severity | Count |\n|---|---|\n")
		for _, severity := range types.Severities {
			if counts[severity] == 0 {
				continue
			}
			reportBuilder.WriteString(fmt.Sprintf("| %s %s | %d |\n", severityIcon(severity), severity, counts[severity]))
		}
		reportBuilder.WriteString("\n")

		reportBuilder.WriteString("## Top issues\n\n")
		for i, issue := range review.Issues {
			if i == maxTopIssues {
				reportBuilder.WriteString(fmt.Sprintf("_...and %d more_\n", len(review.Issues)-maxTopIssues))
				break
			}
			reportBuilder.WriteString(fmt.Sprintf("- %s **%s** `%s` %s\n", severityIcon(issue.Severity), issue.Severity, issue.Location, issue.Message))
			if issue.Suggestion != "" {
				reportBuilder.WriteString(fmt.Sprintf("  - 💡 %s\n", issue.Suggestion))
			}
		}
		reportBuilder.WriteString("\n")
	}

	writeList(&reportBuilder, "## ✅ What's good", review.PositiveFindings)
	writeList(&reportBuilder, "## 💡 Recommendations", review.Recommendations)

	if len(classification.AutoFixable) > 0 {
		reportBuilder.WriteString("## 🔧 Auto-fix candidates\n\n")
		for _, issue := range classification.AutoFixable {
			code := issue.Code
			if code == "" {
				code = "unnamed rule"
			}
			reportBuilder.WriteString(fmt.Sprintf("- `%s` at `%s`\n", code, issue.Location))
		}
		reportBuilder.WriteString("\n")
	}

	if len(complexity) > 0 {
		reportBuilder.WriteString("## 📊 Complexity\n\n")
		reportBuilder.WriteString("| File | LOC | Cyclomatic | Cognitive | Maintainability |\n")
		reportBuilder.WriteString("|---|---|---|---|---|\n")

		files := make([]string, 0, len(complexity))
		for file := range complexity {
			files = append(files, file)
		}
		sort.Strings(files)

		for _, file := range files {
			m := complexity[file]
			reportBuilder.WriteString(fmt.Sprintf("| `%s` | %d | %d | %d | %.1f |\n",
				file, m.LinesOfCode, m.CyclomaticComplexity, m.CognitiveComplexity, m.MaintainabilityIndex))
		}
		reportBuilder.WriteString("\n")
	}

	return reportBuilder.String()
}

// ErrorComment is posted when a review could not be delivered.
func ErrorComment(err error) string {
	return fmt.Sprintf("%s\n# PR Sentinel Review\n\n⚠️ The automated review could not be completed: %v\n\nPush a new commit or re-run the check to try again.\n", CommentMarker, err)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s\n", item))
	}
	b.WriteString("\n")
}
