package analyzers

import (
	"fmt"

	"github.com/agusespa/prsentinel/internal/types"
)

const (
	CodeLongFunction   = "long-function"
	CodeTooManyParams  = "too-many-params"
	functionSourceName = "functions"
)

// FunctionAnalyzer flags functions that are too long or take too many parameters, using
// tree-sitter to find definitions.
type FunctionAnalyzer struct {
	maxLines  int
	maxParams int
}

func NewFunctionAnalyzer(thresholds Thresholds) *FunctionAnalyzer {
	return &FunctionAnalyzer{
		maxLines:  thresholds.MaxFunctionLines,
		maxParams: thresholds.MaxParameters,
	}
}

func (a *FunctionAnalyzer) Name() string {
	return functionSourceName
}

func (a *FunctionAnalyzer) Analyze(content, filename, language string) ([]types.Issue, error) {
	if !SupportsSyntax(language) {
		return nil, nil
	}

	spans, err := ExtractFunctions(content, filename, language)
	if err != nil {
		return nil, err
	}

	var issues []types.Issue
	for _, fn := range spans {
		name := fn.Name
		if name == "" {
			name = "anonymous function"
		}
		loc := types.Location{File: filename, Line: fn.StartLine, EndLine: fn.EndLine}

		if a.maxLines > 0 && fn.Lines() > a.maxLines {
			severity := types.SeverityMedium
			if fn.Lines() > 2*a.maxLines {
				severity = types.SeverityHigh
			}
			issues = append(issues, types.Issue{
				Severity:   severity,
				Category:   types.CategoryMaintainability,
				Message:    fmt.Sprintf("%s is %d lines long (limit %d)", name, fn.Lines(), a.maxLines),
				Location:   loc,
				Suggestion: "Split the function into smaller helpers",
				Code:       CodeLongFunction,
				Source:     a.Name(),
			}.Normalize())
		}

		if a.maxParams > 0 && fn.Parameters > a.maxParams {
			issues = append(issues, types.Issue{
				Severity:   types.SeverityLow,
				Category:   types.CategoryMaintainability,
				Message:    fmt.Sprintf("%s takes %d parameters (limit %d)", name, fn.Parameters, a.maxParams),
				Location:   loc,
				Suggestion: "Group related parameters into a struct or options object",
				Code:       CodeTooManyParams,
				Source:     a.Name(),
			}.Normalize())
		}
	}

	return issues, nil
}
