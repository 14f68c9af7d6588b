package analyzers

import (
	"fmt"

	"github.com/agusespa/prsentinel/internal/complexity"
	"github.com/agusespa/prsentinel/internal/types"
)

// codeLanguages are the languages complexity metrics are meaningful for.
var codeLanguages = map[string]bool{
	"go": true, "javascript": true, "typescript": true, "jsx": true, "tsx": true,
	"python": true, "java": true, "c": true, "cpp": true, "csharp": true, "php": true,
	"ruby": true, "rust": true, "swift": true, "kotlin": true, "scala": true, "bash": true,
}

// ComplexityAnalyzer reports files whose estimated complexity crosses the configured limits.
type ComplexityAnalyzer struct {
	thresholds Thresholds
}

func NewComplexityAnalyzer(thresholds Thresholds) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{thresholds: thresholds}
}

func (a *ComplexityAnalyzer) Name() string {
	return "complexity"
}

func (a *ComplexityAnalyzer) Analyze(content, filename, language string) ([]types.Issue, error) {
	if !codeLanguages[language] {
		return nil, nil
	}

	metrics := complexity.Estimate(content, language)
	t := a.thresholds
	var issues []types.Issue

	if t.MaxCyclomatic > 0 && metrics.CyclomaticComplexity > t.MaxCyclomatic {
		issues = append(issues, a.fileIssue(filename, "high-cyclomatic-complexity",
			overLimit(metrics.CyclomaticComplexity, t.MaxCyclomatic),
			fmt.Sprintf("Cyclomatic complexity is %d (limit %d)", metrics.CyclomaticComplexity, t.MaxCyclomatic),
			"Reduce branching by extracting functions or using lookup tables"))
	}
	if t.MaxCognitive > 0 && metrics.CognitiveComplexity > t.MaxCognitive {
		issues = append(issues, a.fileIssue(filename, "high-cognitive-complexity",
			overLimit(metrics.CognitiveComplexity, t.MaxCognitive),
			fmt.Sprintf("Cognitive complexity is %d (limit %d)", metrics.CognitiveComplexity, t.MaxCognitive),
			"Flatten nested conditionals with early returns"))
	}
	if t.MinMaintainability > 0 && metrics.LinesOfCode > 0 && metrics.MaintainabilityIndex < t.MinMaintainability {
		issues = append(issues, a.fileIssue(filename, "low-maintainability", types.SeverityMedium,
			fmt.Sprintf("Maintainability index is %.1f (minimum %.0f)", metrics.MaintainabilityIndex, t.MinMaintainability),
			"Split the file into smaller, focused units"))
	}

	return issues, nil
}

func (a *ComplexityAnalyzer) fileIssue(filename, code string, severity types.Severity, message, suggestion string) types.Issue {
	return types.Issue{
		Severity:   severity,
		Category:   types.CategoryMaintainability,
		Message:    message,
		Location:   types.Location{File: filename},
		Suggestion: suggestion,
		Code:       code,
		Source:     a.Name(),
	}.Normalize()
}

func overLimit(value, limit int) types.Severity {
	if value > 2*limit {
		return types.SeverityHigh
	}
	return types.SeverityMedium
}
