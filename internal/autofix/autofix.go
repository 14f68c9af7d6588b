// Package autofix applies the whitelisted line-local rewrites for auto-fixable issues.
package autofix

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agusespa/prsentinel/internal/classify"
	"github.com/agusespa/prsentinel/internal/types"
	"github.com/agusespa/prsentinel/internal/utils"
	"github.com/rs/zerolog"
)

// Applied is a rewrite that changed the content.
type Applied struct {
	Code string `json:"code"`
	Line int    `json:"line"`
}

// Skipped is an auto-fixable issue that was left alone.
type Skipped struct {
	Code   string `json:"code"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

var (
	varKeyword       = regexp.MustCompile(`(^|[;{(]\s*)var(\s+)`)
	consoleStatement = regexp.MustCompile(`^console\.\w+\(.*\);?$`)
	debuggerLine     = regexp.MustCompile(`^debugger\s*;?$`)
)

// rewrite returns the new line, whether the line is removed, and a skip reason when the
// rewrite does not apply.
type rewrite func(line string) (string, bool, string)

var rewrites = map[string]rewrite{
	"no-var": func(line string) (string, bool, string) {
		loc := varKeyword.FindStringSubmatchIndex(line)
		if loc == nil {
			return line, false, "var keyword not found"
		}
		// loc[2:4] is the prefix group, loc[4:6] the whitespace after the keyword.
		return line[:loc[3]] + "let" + line[loc[4]:], false, ""
	},
	"no-console": func(line string) (string, bool, string) {
		if !consoleStatement.MatchString(strings.TrimSpace(line)) {
			return line, false, "console call shares its line with other code"
		}
		return "", true, ""
	},
	"no-debugger": func(line string) (string, bool, string) {
		if !debuggerLine.MatchString(strings.TrimSpace(line)) {
			return line, false, "debugger shares its line with other code"
		}
		return "", true, ""
	},
	"missing-semicolon": func(line string) (string, bool, string) {
		body, cr := splitCR(line)
		trimmed := strings.TrimRight(body, " \t")
		if trimmed == "" || strings.HasSuffix(trimmed, ";") {
			return line, false, "line already terminated"
		}
		return trimmed + ";" + body[len(trimmed):] + cr, false, ""
	},
	"trailing-whitespace": func(line string) (string, bool, string) {
		body, cr := splitCR(line)
		trimmed := strings.TrimRight(body, " \t")
		if trimmed == body {
			return line, false, "no trailing whitespace"
		}
		return trimmed + cr, false, ""
	},
	"double-quotes": func(line string) (string, bool, string) {
		spans, ok := utils.SimpleDoubleQuoted(line)
		if !ok {
			return line, false, "string boundaries on the line are ambiguous"
		}
		if len(spans) == 0 {
			return line, false, "no simple double-quoted literal"
		}
		requoted := []byte(line)
		for _, span := range spans {
			requoted[span.Start] = '\''
			requoted[span.End-1] = '\''
		}
		return string(requoted), false, ""
	},
}

// Fixer applies whitelisted rewrites. Anything it does not recognize is skipped and logged,
// never guessed at.
type Fixer struct {
	logger zerolog.Logger
}

func NewFixer(logger zerolog.Logger) *Fixer {
	return &Fixer{logger: logger.With().Str("component", "autofix").Logger()}
}

// Apply rewrites content at the lines of the given issues. Issues are applied in line order;
// several fixes on one line compose unless one of them removes the line.
func (f *Fixer) Apply(content string, issues []types.Issue) (string, []Applied, []Skipped) {
	lines := strings.Split(content, "\n")
	removed := make(map[int]bool)
	var applied []Applied
	var skipped []Skipped

	ordered := make([]types.Issue, len(issues))
	copy(ordered, issues)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Location.Line < ordered[j].Location.Line
	})

	for _, issue := range ordered {
		code, line := issue.Code, issue.Location.Line
		skip := func(reason string) {
			skipped = append(skipped, Skipped{Code: code, Line: line, Reason: reason})
		}

		if !issue.AutoFixable {
			skip("issue is not auto-fixable")
			continue
		}
		fix, known := rewrites[code]
		if !known || !classify.IsWhitelisted(code) {
			f.logger.Warn().Str("code", code).Str("location", issue.Location.String()).Msg("No whitelisted fix for rule, leaving it for manual review")
			skip("rule is not on the fix whitelist")
			continue
		}
		if line < 1 || line > len(lines) {
			skip("line out of range")
			continue
		}
		if removed[line] {
			skip("line already removed")
			continue
		}

		updated, remove, reason := fix(lines[line-1])
		if reason != "" {
			f.logger.Debug().Str("code", code).Int("line", line).Str("reason", reason).Msg("Fix not applied")
			skip(reason)
			continue
		}

		if remove {
			removed[line] = true
		} else {
			lines[line-1] = updated
		}
		applied = append(applied, Applied{Code: code, Line: line})
	}

	if len(removed) == 0 {
		return strings.Join(lines, "\n"), applied, skipped
	}

	kept := make([]string, 0, len(lines)-len(removed))
	for idx, l := range lines {
		if !removed[idx+1] {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n"), applied, skipped
}

func splitCR(line string) (string, string) {
	if strings.HasSuffix(line, "\r") {
		return line[:len(line)-1], "\r"
	}
	return line, ""
}
