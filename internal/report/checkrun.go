package report

import (
	"github.com/agusespa/prsentinel/internal/types"
)

// MaxAnnotations is the per-request annotation limit of the GitHub checks API.
const MaxAnnotations = 50

const (
	AnnotationFailure = "failure"
	AnnotationWarning = "warning"
	AnnotationNotice  = "notice"
)

type Annotation struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Level     string `json:"annotation_level"`
	Title     string `json:"title"`
	Message   string `json:"message"`
}

// CheckRunOutput is the output block of a check run.
type CheckRunOutput struct {
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations"`
}

// BuildCheckRunOutput renders the check-run output: the decision as title and summary, the
// full summary comment as text and the first MaxAnnotations issues as annotations.
// File-level issues are anchored to line 1.
func BuildCheckRunOutput(review types.AggregatedReview, decision Decision, text string) CheckRunOutput {
	output := CheckRunOutput{
		Title:       decision.Title(review.OverallScore),
		Summary:     decision.Description,
		Text:        text,
		Annotations: []Annotation{},
	}

	for _, issue := range review.Issues {
		if len(output.Annotations) == MaxAnnotations {
			break
		}
		if issue.Location.File == types.UnknownFile {
			continue
		}

		start, end := issue.Location.Line, issue.Location.EndLine
		if !issue.Location.HasLine() {
			start, end = 1, 1
		}
		if end < start {
			end = start
		}

		output.Annotations = append(output.Annotations, Annotation{
			Path:      issue.Location.File,
			StartLine: start,
			EndLine:   end,
			Level:     annotationLevel(issue.Severity),
			Title:     string(issue.Severity) + " " + string(issue.Category),
			Message:   issue.Message,
		})
	}

	return output
}

func annotationLevel(severity types.Severity) string {
	switch severity {
	case types.SeverityCritical, types.SeverityHigh:
		return AnnotationFailure
	case types.SeverityMedium:
		return AnnotationWarning
	default:
		return AnnotationNotice
	}
}
