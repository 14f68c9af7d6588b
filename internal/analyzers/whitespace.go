package analyzers

import (
	"regexp"

	"github.com/agusespa/prsentinel/internal/types"
)

var whitespaceRules = []lineRule{
	{
		code:         CodeTrailingWhitespace,
		pattern:      regexp.MustCompile(`[ \t]+\r?$`),
		severity:     types.SeverityInfo,
		category:     types.CategoryStyle,
		message:      "Trailing whitespace",
		suggestion:   "Remove whitespace at the end of the line",
		autoFixable:  true,
		scanComments: true,
	},
}

// WhitespaceAnalyzer flags formatting problems common to every language.
type WhitespaceAnalyzer struct{}

func NewWhitespaceAnalyzer() *WhitespaceAnalyzer {
	return &WhitespaceAnalyzer{}
}

func (a *WhitespaceAnalyzer) Name() string {
	return "whitespace"
}

func (a *WhitespaceAnalyzer) Analyze(content, filename, language string) ([]types.Issue, error) {
	// Markdown uses trailing spaces as hard line breaks.
	if languageIn(language, "markdown") {
		return nil, nil
	}
	return scanLines(whitespaceRules, content, filename, language, a.Name()), nil
}
