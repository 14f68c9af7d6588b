package analyzers

import (
	"regexp"

	"github.com/agusespa/prsentinel/internal/types"
)

var pythonRules = []lineRule{
	{
		code:       "bare-except",
		pattern:    regexp.MustCompile(`^\s*except\s*:`),
		severity:   types.SeverityMedium,
		category:   types.CategoryBug,
		message:    "Bare except clause catches SystemExit and KeyboardInterrupt",
		suggestion: "Catch a specific exception type, or 'except Exception:'",
	},
	{
		code:       "mutable-default-arg",
		pattern:    regexp.MustCompile(`^\s*def\s+\w+\(.*=\s*(\[\]|\{\}|list\(\)|dict\(\)|set\(\))`),
		severity:   types.SeverityMedium,
		category:   types.CategoryBug,
		message:    "Mutable default argument is shared between calls",
		suggestion: "Default to None and create the value inside the function",
	},
	{
		code:       "wildcard-import",
		pattern:    regexp.MustCompile(`^\s*from\s+\S+\s+import\s+\*`),
		severity:   types.SeverityLow,
		category:   types.CategoryMaintainability,
		message:    "Wildcard import pollutes the module namespace",
		suggestion: "Import the names you use explicitly",
	},
	{
		code:       "print-statement",
		pattern:    regexp.MustCompile(`^\s*print\(`),
		severity:   types.SeverityInfo,
		category:   types.CategoryBestPractice,
		message:    "print() call left in code",
		suggestion: "Use the logging module",
	},
}

// PythonAnalyzer applies pylint-style line heuristics to Python.
type PythonAnalyzer struct{}

func NewPythonAnalyzer() *PythonAnalyzer {
	return &PythonAnalyzer{}
}

func (a *PythonAnalyzer) Name() string {
	return "python"
}

func (a *PythonAnalyzer) Analyze(content, filename, language string) ([]types.Issue, error) {
	if !languageIn(language, "python") {
		return nil, nil
	}
	return scanLines(pythonRules, content, filename, language, a.Name()), nil
}
