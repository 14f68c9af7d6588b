package analyzers

import (
	"regexp"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
)

const (
	CodeNoVar              = "no-var"
	CodeNoConsole          = "no-console"
	CodeNoDebugger         = "no-debugger"
	CodeMissingSemicolon   = "missing-semicolon"
	CodeTrailingWhitespace = "trailing-whitespace"
	CodeDoubleQuotes       = "double-quotes"
	CodeEqEqEq             = "eqeqeq"
	CodeNoExplicitAny      = "no-explicit-any"
)

var javascriptRules = []lineRule{
	{
		code:        CodeNoVar,
		pattern:     regexp.MustCompile(`(^|[;{(]\s*)var\s+[A-Za-z_$]`),
		severity:    types.SeverityLow,
		category:    types.CategoryBestPractice,
		message:     "Unexpected var, use let or const instead",
		suggestion:  "Replace 'var' with 'const', or 'let' if the binding is reassigned",
		autoFixable: true,
	},
	{
		code:        CodeNoConsole,
		pattern:     regexp.MustCompile(`\bconsole\.(log|debug|info|trace|dir)\s*\(`),
		severity:    types.SeverityLow,
		category:    types.CategoryBestPractice,
		message:     "Unexpected console statement",
		suggestion:  "Remove the console call or use the project logger",
		autoFixable: true,
	},
	{
		code:        CodeNoDebugger,
		pattern:     regexp.MustCompile(`^\s*debugger\s*;?\s*$`),
		severity:    types.SeverityMedium,
		category:    types.CategoryBug,
		message:     "Unexpected debugger statement",
		suggestion:  "Remove the debugger statement",
		autoFixable: true,
	},
	{
		code:        CodeDoubleQuotes,
		match:       firstRequotable,
		severity:    types.SeverityInfo,
		category:    types.CategoryStyle,
		message:     "Strings must use single quotes",
		suggestion:  "Use single quotes for string literals",
		autoFixable: true,
	},
	{
		code:       CodeEqEqEq,
		pattern:    regexp.MustCompile(`[^=!<>]==[^=]|!=[^=]`),
		severity:   types.SeverityMedium,
		category:   types.CategoryBug,
		message:    "Expected '===' or '!==' instead of loose equality",
		suggestion: "Use strict equality to avoid type coercion",
	},
}

var typescriptOnlyRules = []lineRule{
	{
		code:       CodeNoExplicitAny,
		pattern:    regexp.MustCompile(`(:\s*any\b|<any>|\bas\s+any\b)`),
		severity:   types.SeverityLow,
		category:   types.CategoryMaintainability,
		message:    "Unexpected any, specify a more precise type",
		suggestion: "Replace 'any' with a concrete type or 'unknown'",
	},
}

var (
	semicolonStatement = regexp.MustCompile(`^(const|let|var|return|throw|import|export\s+(const|let|default))\b`)
	semicolonEnding    = regexp.MustCompile("[\\w)\\]'\"`]$")
	continuationStart  = regexp.MustCompile(`^(\.|\?|:|\+|-|\*|/|&&|\|\||\)|\]|,)`)
)

// JavaScriptAnalyzer applies ESLint-style line heuristics to JavaScript and TypeScript.
type JavaScriptAnalyzer struct{}

func NewJavaScriptAnalyzer() *JavaScriptAnalyzer {
	return &JavaScriptAnalyzer{}
}

func (a *JavaScriptAnalyzer) Name() string {
	return "javascript"
}

func (a *JavaScriptAnalyzer) Analyze(content, filename, language string) ([]types.Issue, error) {
	if !languageIn(language, "javascript", "typescript", "jsx", "tsx") {
		return nil, nil
	}

	rules := javascriptRules
	if languageIn(language, "jsx", "tsx") {
		// JSX attributes conventionally use double quotes.
		rules = withoutRule(rules, CodeDoubleQuotes)
	}
	if languageIn(language, "typescript", "tsx") {
		rules = append(append([]lineRule{}, rules...), typescriptOnlyRules...)
	}

	issues := scanLines(rules, content, filename, language, a.Name())
	issues = append(issues, missingSemicolons(content, filename, a.Name())...)
	return issues, nil
}

// missingSemicolons flags single-line declarations and returns that end without a semicolon
// and are not continued on the next line.
func missingSemicolons(content, filename, source string) []types.Issue {
	lines := strings.Split(content, "\n")
	var issues []types.Issue

	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !semicolonStatement.MatchString(trimmed) || !semicolonEnding.MatchString(trimmed) {
			continue
		}
		if strings.Contains(trimmed, "//") {
			continue
		}
		if next := nextNonEmpty(lines, idx+1); next != "" && continuationStart.MatchString(next) {
			continue
		}

		issues = append(issues, types.Issue{
			Severity:    types.SeverityLow,
			Category:    types.CategoryStyle,
			Message:     "Missing semicolon",
			Location:    types.Location{File: filename, Line: idx + 1, Column: len(strings.TrimRight(line, " \t")) + 1},
			Suggestion:  "Terminate the statement with a semicolon",
			AutoFixable: true,
			Code:        CodeMissingSemicolon,
			Source:      source,
		}.Normalize())
	}

	return issues
}

func nextNonEmpty(lines []string, from int) string {
	for i := from; i < len(lines); i++ {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func withoutRule(rules []lineRule, code string) []lineRule {
	filtered := make([]lineRule, 0, len(rules))
	for _, r := range rules {
		if r.code != code {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// firstRequotable locates the first double-quoted literal that can safely become single-quoted.
func firstRequotable(line string) []int {
	spans, ok := utils.SimpleDoubleQuoted(line)
	if !ok || len(spans) == 0 {
		return nil
	}
	return []int{spans[0].Start, spans[0].End}
}
