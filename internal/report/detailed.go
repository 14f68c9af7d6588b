package report

import (
	"fmt"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
)

// snippetContext is the number of lines shown around an issue's line.
const snippetContext = 2

// DetailedReport renders every issue with the code it points at, for reading outside GitHub.
// contents maps a file path to its content at the reviewed revision.
func DetailedReport(review types.AggregatedReview, decision Decision, contents map[string]string) string {
	var reportBuilder strings.Builder
	reportBuilder.WriteString("# Code Review Report\n\n")
	reportBuilder.WriteString(fmt.Sprintf("%s %s\n\n", conclusionIcon(decision.Conclusion), decision.Description))

	if review.Summary != "" {
		reportBuilder.WriteString(review.Summary + "\n\n")
	}

	for _, issue := range review.Issues {
		reportBuilder.WriteString(fmt.Sprintf("## %s %s: %s\n", severityIcon(issue.Severity), strings.ToUpper(string(issue.Severity)), issue.Message))
		reportBuilder.WriteString(fmt.Sprintf("**File:** `%s`\n", issue.Location.File))
		if issue.Code != "" {
			reportBuilder.WriteString(fmt.Sprintf("**Rule:** `%s` (%s)\n", issue.Code, issue.Category))
		} else {
			reportBuilder.WriteString(fmt.Sprintf("**Category:** %s\n", issue.Category))
		}

		content, ok := contents[issue.Location.File]
		if issue.Location.HasLine() && ok {
			lines := strings.Split(content, "\n")
			if issue.Location.Line > len(lines) {
				reportBuilder.WriteString(fmt.Sprintf("**Location:** Line %d is past the end of the file\n", issue.Location.Line))
			} else {
				writeSnippet(&reportBuilder, issue, lines)
			}
		}

		if issue.Suggestion != "" {
			reportBuilder.WriteString(fmt.Sprintf("**Suggestion:** %s\n", issue.Suggestion))
		}
		reportBuilder.WriteString("\n---\n\n")
	}

	counts := types.CountBySeverity(review.Issues)
	reportBuilder.WriteString(fmt.Sprintf("**Summary:** %d critical, %d high, %d medium, %d low, %d info\n",
		counts[types.SeverityCritical], counts[types.SeverityHigh], counts[types.SeverityMedium],
		counts[types.SeverityLow], counts[types.SeverityInfo]))

	return reportBuilder.String()
}

func writeSnippet(b *strings.Builder, issue types.Issue, lines []string) {
	end := issue.Location.Line
	if issue.Location.EndLine > end && issue.Location.EndLine <= len(lines) {
		end = issue.Location.EndLine
	}
	first := max(1, issue.Location.Line-snippetContext)
	last := min(len(lines), end+snippetContext)

	if end == issue.Location.Line {
		b.WriteString(fmt.Sprintf("**Location:** Line %d\n", issue.Location.Line))
	} else {
		b.WriteString(fmt.Sprintf("**Location:** Lines %d-%d\n", issue.Location.Line, end))
	}
	b.WriteString(fmt.Sprintf("```%s\n", utils.DetectLanguageFromFilePath(issue.Location.File)))
	for n := first; n <= last; n++ {
		marker := " "
		if n >= issue.Location.Line && n <= end {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("%s %4d | %s\n", marker, n, lines[n-1]))
	}
	b.WriteString("```\n")
}
