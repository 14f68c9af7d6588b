package analyzers

import (
	"regexp"

	"github.com/agusespa/prsentinel/internal/types"
)

var goRules = []lineRule{
	{
		code:       "discarded-error",
		pattern:    regexp.MustCompile(`^\s*_\s*(,\s*_\s*)?=\s*[\w.]+\(`),
		severity:   types.SeverityMedium,
		category:   types.CategoryBug,
		message:    "Return value, possibly an error, is discarded",
		suggestion: "Handle the error or document why it can be ignored",
	},
	{
		code:       "panic-call",
		pattern:    regexp.MustCompile(`\bpanic\(`),
		severity:   types.SeverityMedium,
		category:   types.CategoryBestPractice,
		message:    "panic in library code",
		suggestion: "Return an error instead of panicking",
	},
	{
		code:       "fmt-print",
		pattern:    regexp.MustCompile(`\bfmt\.Print(ln|f)?\(`),
		severity:   types.SeverityInfo,
		category:   types.CategoryBestPractice,
		message:    "fmt.Print call writes to stdout",
		suggestion: "Use the structured logger",
	},
	{
		code:       "context-todo",
		pattern:    regexp.MustCompile(`\bcontext\.TODO\(\)`),
		severity:   types.SeverityLow,
		category:   types.CategoryMaintainability,
		message:    "context.TODO() left in code",
		suggestion: "Thread the caller's context through",
	},
}

// GoAnalyzer applies vet-style line heuristics to Go.
type GoAnalyzer struct{}

func NewGoAnalyzer() *GoAnalyzer {
	return &GoAnalyzer{}
}

func (a *GoAnalyzer) Name() string {
	return "go"
}

func (a *GoAnalyzer) Analyze(content, filename, language string) ([]types.Issue, error) {
	if !languageIn(language, "go") {
		return nil, nil
	}
	return scanLines(goRules, content, filename, language, a.Name()), nil
}
