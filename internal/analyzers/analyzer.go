// Package analyzers holds the static finding producers: per-language heuristics, complexity
// thresholds, syntax-aware function checks and the security scanner.
package analyzers

import (
	"regexp"
	"strings"

	"github.com/agusespa/prsentinel/internal/complexity"
	"github.com/agusespa/prsentinel/internal/types"
)

// FindingProducer turns one file into issues. Producers must be side-effect free; they may be
// called concurrently with other producers over the same files.
type FindingProducer interface {
	Name() string
	Analyze(content, filename, language string) ([]types.Issue, error)
}

// Registry holds the static analyzers, in the order their results are merged, and the
// security scanner, which is always merged last.
type Registry struct {
	static   []FindingProducer
	security FindingProducer
}

// NewRegistry builds the default producer set.
func NewRegistry(thresholds Thresholds) *Registry {
	return &Registry{
		static: []FindingProducer{
			NewJavaScriptAnalyzer(),
			NewPythonAnalyzer(),
			NewGoAnalyzer(),
			NewWhitespaceAnalyzer(),
			NewComplexityAnalyzer(thresholds),
			NewFunctionAnalyzer(thresholds),
		},
		security: NewSecurityScanner(),
	}
}

// NewCustomRegistry builds a registry from explicit producers.
func NewCustomRegistry(security FindingProducer, static ...FindingProducer) *Registry {
	return &Registry{static: static, security: security}
}

func (r *Registry) Static() []FindingProducer {
	return r.static
}

func (r *Registry) Security() FindingProducer {
	return r.security
}

// Producers returns every producer in merge order: static analyzers, then the security scanner.
func (r *Registry) Producers() []FindingProducer {
	producers := make([]FindingProducer, 0, len(r.static)+1)
	producers = append(producers, r.static...)
	if r.security != nil {
		producers = append(producers, r.security)
	}
	return producers
}

// Thresholds configures the metric-driven analyzers.
type Thresholds struct {
	MaxCyclomatic      int     `yaml:"max_cyclomatic"`
	MaxCognitive       int     `yaml:"max_cognitive"`
	MinMaintainability float64 `yaml:"min_maintainability"`
	MaxFunctionLines   int     `yaml:"max_function_lines"`
	MaxParameters      int     `yaml:"max_parameters"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxCyclomatic:      15,
		MaxCognitive:       20,
		MinMaintainability: 20,
		MaxFunctionLines:   60,
		MaxParameters:      5,
	}
}

// lineRule is a single-line pattern check.
type lineRule struct {
	code        string
	pattern     *regexp.Regexp
	severity    types.Severity
	category    types.Category
	message     string
	suggestion  string
	autoFixable bool
	// scanComments also matches lines that are entirely comments.
	scanComments bool
	// match replaces pattern when a regexp cannot decide; it returns the match span or nil.
	match func(line string) []int
}

// scanLines applies rules to every line of content. Line numbers are 1-based and the column
// points at the start of the first match.
func scanLines(rules []lineRule, content, filename, language, source string) []types.Issue {
	marker := complexity.CommentMarker(language)
	var issues []types.Issue

	for idx, line := range strings.Split(content, "\n") {
		isComment := strings.HasPrefix(strings.TrimSpace(line), marker)
		for _, rule := range rules {
			if isComment && !rule.scanComments {
				continue
			}
			var loc []int
			if rule.match != nil {
				loc = rule.match(line)
			} else {
				loc = rule.pattern.FindStringIndex(line)
			}
			if loc == nil {
				continue
			}
			issues = append(issues, types.Issue{
				Severity:    rule.severity,
				Category:    rule.category,
				Message:     rule.message,
				Location:    types.Location{File: filename, Line: idx + 1, Column: loc[0] + 1},
				Suggestion:  rule.suggestion,
				AutoFixable: rule.autoFixable,
				Code:        rule.code,
				Source:      source,
			}.Normalize())
		}
	}

	return issues
}

func languageIn(language string, supported ...string) bool {
	language = strings.ToLower(language)
	for _, s := range supported {
		if language == s {
			return true
		}
	}
	return false
}
