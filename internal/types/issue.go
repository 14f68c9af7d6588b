package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the closed set of issue severities, ordered from most to least severe.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity in rank order.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank returns 0 for critical through 4 for info. Unknown values rank as medium.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 2
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// ParseSeverity maps free-form producer output onto a Severity. Unknown values become medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "blocker":
		return SeverityCritical
	case "high", "error", "major":
		return SeverityHigh
	case "medium", "warning", "moderate":
		return SeverityMedium
	case "low", "minor":
		return SeverityLow
	case "info", "informational", "note", "nitpick":
		return SeverityInfo
	default:
		return SeverityMedium
	}
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// numbers, nulls and objects are coerced rather than rejected
		*s = SeverityMedium
		return nil
	}
	*s = ParseSeverity(raw)
	return nil
}

// Category is the closed set of issue categories.
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryMaintainability Category = "maintainability"
	CategoryStyle           Category = "style"
	CategoryBug             Category = "bug"
	CategoryBestPractice    Category = "best-practice"
)

var Categories = []Category{
	CategorySecurity, CategoryPerformance, CategoryMaintainability,
	CategoryStyle, CategoryBug, CategoryBestPractice,
}

func (c Category) Valid() bool {
	switch c {
	case CategorySecurity, CategoryPerformance, CategoryMaintainability, CategoryStyle, CategoryBug, CategoryBestPractice:
		return true
	}
	return false
}

// ParseCategory maps free-form producer output onto a Category. Unknown values become maintainability.
func ParseCategory(s string) Category {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	switch normalized {
	case "security":
		return CategorySecurity
	case "performance":
		return CategoryPerformance
	case "maintainability":
		return CategoryMaintainability
	case "style":
		return CategoryStyle
	case "bug", "correctness":
		return CategoryBug
	case "best-practice", "bestpractice", "best-practices":
		return CategoryBestPractice
	default:
		return CategoryMaintainability
	}
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = CategoryMaintainability
		return nil
	}
	*c = ParseCategory(raw)
	return nil
}

// Location points at a file and, optionally, a line span. Zero line numbers mean "absent".
type Location struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	EndLine int    `json:"end_line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (l Location) HasLine() bool {
	return l.Line > 0
}

func (l Location) String() string {
	if !l.HasLine() {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

const (
	UnknownFile        = "unknown"
	UnspecifiedMessage = "Unspecified issue"
)

// Issue is a single finding emitted by any producer.
type Issue struct {
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Message     string   `json:"message"`
	Location    Location `json:"location"`
	Suggestion  string   `json:"suggestion,omitempty"`
	AutoFixable bool     `json:"auto_fixable"`
	Code        string   `json:"code,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// NewIssue builds an already-normalized issue.
func NewIssue(severity Severity, category Category, file string, line int, message string) Issue {
	return Issue{
		Severity: severity,
		Category: category,
		Message:  message,
		Location: Location{File: file, Line: line},
	}.Normalize()
}

// Normalize coerces every field into its canonical shape so downstream code never sees
// empty files, empty messages, or out-of-set enum values.
func (i Issue) Normalize() Issue {
	if !i.Severity.Valid() {
		i.Severity = ParseSeverity(string(i.Severity))
	}
	if !i.Category.Valid() {
		i.Category = ParseCategory(string(i.Category))
	}

	i.Location.File = strings.TrimSpace(i.Location.File)
	if i.Location.File == "" {
		i.Location.File = UnknownFile
	}
	i.Message = strings.TrimSpace(i.Message)
	if i.Message == "" {
		i.Message = UnspecifiedMessage
	}

	if i.Location.Line < 0 {
		i.Location.Line = 0
	}
	if i.Location.Column < 0 {
		i.Location.Column = 0
	}
	if i.Location.EndLine < i.Location.Line {
		i.Location.EndLine = i.Location.Line
	}
	if !i.Location.HasLine() {
		i.Location.EndLine = 0
	}

	i.Code = strings.TrimSpace(i.Code)
	return i
}

// DedupKey identifies duplicate findings: (file, line, message), or (file, message) when the
// issue has no line.
type DedupKey struct {
	File    string
	Line    int
	HasLine bool
	Message string
}

func (i Issue) Key() DedupKey {
	return DedupKey{
		File:    i.Location.File,
		Line:    i.Location.Line,
		HasLine: i.Location.HasLine(),
		Message: i.Message,
	}
}

func (i Issue) IsSecurity() bool {
	return i.Category == CategorySecurity
}

// NormalizeIssues returns a normalized copy of issues.
func NormalizeIssues(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	for idx, issue := range issues {
		out[idx] = issue.Normalize()
	}
	return out
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}

// CountSecurity returns the number of security-category issues.
func CountSecurity(issues []Issue) int {
	count := 0
	for _, issue := range issues {
		if issue.IsSecurity() {
			count++
		}
	}
	return count
}
