package report

import (
	"fmt"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
)

// InlineComment is a review comment anchored to a new-side line of the PR diff.
type InlineComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// InlineComments returns one comment per issue whose line is visible in its file's patch,
// in issue order, capped at limit. A limit of zero or less means no cap. Files whose patch
// cannot be parsed get no inline comments.
func InlineComments(issues []types.Issue, patches map[string]string, limit int) []InlineComment {
	parsed := make(map[string]*utils.PatchLines)
	var comments []InlineComment

	for _, issue := range issues {
		if limit > 0 && len(comments) >= limit {
			break
		}
		if !issue.Location.HasLine() {
			continue
		}

		lines, ok := parsed[issue.Location.File]
		if !ok {
			lines = nil
			if patch, exists := patches[issue.Location.File]; exists {
				if p, err := utils.ParsePatch(patch); err == nil {
					lines = &p
				}
			}
			parsed[issue.Location.File] = lines
		}
		if lines == nil || !lines.Commentable(issue.Location.Line) {
			continue
		}

		comments = append(comments, InlineComment{
			Path: issue.Location.File,
			Line: issue.Location.Line,
			Body: inlineBody(issue),
		})
	}

	return comments
}

func inlineBody(issue types.Issue) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s **%s** (%s): %s\n", severityIcon(issue.Severity), issue.Severity, issue.Category, issue.Message))
	if issue.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n💡 %s\n", issue.Suggestion))
	}

	var tags []string
	if issue.Source != "" {
		tags = append(tags, issue.Source)
	}
	if issue.Code != "" {
		tags = append(tags, issue.Code)
	}
	if issue.AutoFixable {
		tags = append(tags, "auto-fixable")
	}
	if len(tags) > 0 {
		b.WriteString(fmt.Sprintf("\n<sub>%s</sub>\n", strings.Join(tags, " | ")))
	}
	return b.String()
}
