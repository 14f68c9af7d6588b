// Package complexity estimates size and complexity metrics from raw source text.
//
// The estimates are line-based approximations, not an AST walk. They are only meant to be
// comparable across files of the same language.
package complexity

import (
	"math"
	"regexp"
	"strings"

	"github.com/agusespa/prsentinel/internal/types"
)

var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bif\b`),
	regexp.MustCompile(`\belse\s+if\b`),
	regexp.MustCompile(`\bwhile\b`),
	regexp.MustCompile(`\bfor\b`),
	regexp.MustCompile(`\bcase\b`),
	regexp.MustCompile(`\bcatch\b`),
	regexp.MustCompile(`\band\b`),
	regexp.MustCompile(`\bor\b`),
	regexp.MustCompile(`&&`),
	regexp.MustCompile(`\|\|`),
}

var (
	controlKeyword  = regexp.MustCompile(`\b(if|while|for|case)\b`)
	logicalOperator = regexp.MustCompile(`&&|\|\|`)
)

var hashCommentLanguages = map[string]bool{
	"python":     true,
	"ruby":       true,
	"bash":       true,
	"shell":      true,
	"perl":       true,
	"r":          true,
	"yaml":       true,
	"toml":       true,
	"makefile":   true,
	"dockerfile": true,
	"powershell": true,
}

// CommentMarker returns the line-comment marker for a language.
func CommentMarker(language string) string {
	if hashCommentLanguages[strings.ToLower(language)] {
		return "#"
	}
	return "//"
}

// Estimate computes the complexity metrics of a single file. It never fails; degenerate input
// yields degenerate but well-defined metrics.
func Estimate(source, language string) types.ComplexityMetrics {
	marker := CommentMarker(language)

	loc := 0
	cyclomatic := 1
	cognitive := 0
	nesting := 0

	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, marker) {
			continue
		}
		loc++

		cyclomatic += countDecisionPoints(trimmed)

		if controlKeyword.MatchString(trimmed) {
			cognitive += 1 + nesting
		}
		cognitive += len(logicalOperator.FindAllStringIndex(trimmed, -1))

		for _, r := range trimmed {
			switch r {
			case '{':
				nesting++
			case '}':
				if nesting > 0 {
					nesting--
				}
			}
		}
	}

	return types.ComplexityMetrics{
		LinesOfCode:          loc,
		CyclomaticComplexity: cyclomatic,
		CognitiveComplexity:  cognitive,
		MaintainabilityIndex: MaintainabilityIndex(loc, cyclomatic),
	}
}

// MaintainabilityIndex combines size and cyclomatic complexity into a [0,100] score.
func MaintainabilityIndex(loc, cyclomatic int) float64 {
	volume := 0.0
	if loc > 0 {
		volume = 5 * math.Log(float64(loc))
	}
	mi := 171 - 5.2*math.Log(volume+1) - 0.23*float64(cyclomatic) - 16.2*math.Log(float64(loc)+1)
	return math.Max(0, math.Min(100, mi))
}

func countDecisionPoints(line string) int {
	count := 0
	for _, pattern := range decisionPatterns {
		count += len(pattern.FindAllStringIndex(line, -1))
	}
	return count + countTernaries(line)
}

// countTernaries counts '?' used as the conditional operator, skipping optional chaining
// (?.) and nullish coalescing (??).
func countTernaries(line string) int {
	count := 0
	for i := 0; i < len(line); i++ {
		if line[i] != '?' {
			continue
		}
		if i+1 < len(line) && (line[i+1] == '?' || line[i+1] == '.') {
			i++
			continue
		}
		if i > 0 && line[i-1] == '?' {
			continue
		}
		count++
	}
	return count
}
