// Package classify partitions an aggregated review into blocking, advisory and auto-fixable
// issues.
package classify

import (
	"github.com/agusespa/prsentinel/internal/types"
)

// FixWhitelist holds the rule codes with a known deterministic, line-local rewrite. An issue
// flagged auto-fixable with any other code is still classified as such, but the fixer leaves
// it alone.
var FixWhitelist = map[string]bool{
	"no-var":              true,
	"no-console":          true,
	"no-debugger":         true,
	"missing-semicolon":   true,
	"trailing-whitespace": true,
	"double-quotes":       true,
}

func IsWhitelisted(code string) bool {
	return FixWhitelist[code]
}

// BlockingPolicy decides which issues fail the check run and deny auto-merge.
type BlockingPolicy struct {
	// Severities that block regardless of category.
	Severities []types.Severity `yaml:"severities"`
	// SecuritySeverities block only for security-category issues.
	SecuritySeverities []types.Severity `yaml:"security_severities"`
}

// DefaultBlockingPolicy blocks on any critical issue and on high-severity security issues.
func DefaultBlockingPolicy() BlockingPolicy {
	return BlockingPolicy{
		Severities:         []types.Severity{types.SeverityCritical},
		SecuritySeverities: []types.Severity{types.SeverityHigh},
	}
}

func (p BlockingPolicy) IsBlocking(issue types.Issue) bool {
	if containsSeverity(p.Severities, issue.Severity) {
		return true
	}
	return issue.IsSecurity() && containsSeverity(p.SecuritySeverities, issue.Severity)
}

// Classify puts every issue in exactly one of Blocking or Advisory, and additionally in
// AutoFixable when the producer flagged it as such. Issue order is preserved in each set.
func Classify(review types.AggregatedReview, policy BlockingPolicy) types.Classification {
	c := types.Classification{
		AutoFixable: []types.Issue{},
		Blocking:    []types.Issue{},
		Advisory:    []types.Issue{},
	}

	for _, issue := range review.Issues {
		if issue.AutoFixable {
			c.AutoFixable = append(c.AutoFixable, issue)
		}
		if policy.IsBlocking(issue) {
			c.Blocking = append(c.Blocking, issue)
		} else {
			c.Advisory = append(c.Advisory, issue)
		}
	}

	return c
}

func containsSeverity(severities []types.Severity, s types.Severity) bool {
	for _, candidate := range severities {
		if candidate == s {
			return true
		}
	}
	return false
}
