package autofix

import (
	"testing"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixable(code string, line int) types.Issue {
	return types.Issue{
		Severity:    types.SeverityLow,
		Category:    types.CategoryStyle,
		Message:     code,
		Location:    types.Location{File: "app.js", Line: line},
		AutoFixable: true,
		Code:        code,
	}
}

func TestFixer_Rewrites(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		input    string
		expected string
	}{
		{"var to let", "no-var", "var count = 0;", "let count = 0;"},
		{"var inside for", "no-var", "for (var i = 0; i < n; i++) {", "for (let i = 0; i < n; i++) {"},
		{"strip console", "no-console", "a();\n  console.log(\"x\");\nb();", "a();\nb();"},
		{"strip debugger", "no-debugger", "a();\n    debugger;\nb();", "a();\nb();"},
		{"append semicolon", "missing-semicolon", "const x = 1", "const x = 1;"},
		{"trim whitespace", "trailing-whitespace", "const x = 1;  \t", "const x = 1;"},
		{"trim whitespace keeps CR", "trailing-whitespace", "x; \r", "x;\r"},
		{"requote", "double-quotes", `const a = "x" + "y";`, `const a = 'x' + 'y';`},
		{"requote outside single-quoted text", "double-quotes", `f('a "b"', "c");`, `f('a "b"', 'c');`},
		{"requote before line comment", "double-quotes", `x = "a"; // "b"`, `x = 'a'; // "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := 1
			if tt.code == "no-console" || tt.code == "no-debugger" {
				line = 2
			}

			out, applied, skipped := NewFixer(zerolog.Nop()).Apply(tt.input, []types.Issue{fixable(tt.code, line)})

			assert.Equal(t, tt.expected, out)
			assert.Equal(t, []Applied{{Code: tt.code, Line: line}}, applied)
			assert.Empty(t, skipped)
		})
	}
}

func TestFixer_UnknownCodeIsSkipped(t *testing.T) {
	input := "if (a == b) {}"

	out, applied, skipped := NewFixer(zerolog.Nop()).Apply(input, []types.Issue{fixable("eqeqeq", 1)})

	assert.Equal(t, input, out)
	assert.Empty(t, applied)
	require.Len(t, skipped, 1)
	assert.Equal(t, "rule is not on the fix whitelist", skipped[0].Reason)
}

func TestFixer_SkipsUnsafeOrInvalid(t *testing.T) {
	input := "foo(); console.log(x);\nconst y = \"it's\";\nconst msg = 'say \"hi\" now';\nconst t = `a ${\"b\"}`;"
	notFixable := fixable("no-var", 1)
	notFixable.AutoFixable = false

	out, applied, skipped := NewFixer(zerolog.Nop()).Apply(input, []types.Issue{
		fixable("no-console", 1),
		fixable("double-quotes", 2),
		fixable("double-quotes", 3),
		fixable("double-quotes", 4),
		fixable("no-var", 9),
		notFixable,
	})

	assert.Equal(t, input, out)
	assert.Empty(t, applied)
	assert.Len(t, skipped, 6)
}

func TestFixer_ComposesFixesOnOneLine(t *testing.T) {
	input := "var a = \"x\"  \nvar b = 2;"

	out, applied, _ := NewFixer(zerolog.Nop()).Apply(input, []types.Issue{
		fixable("no-var", 2),
		fixable("trailing-whitespace", 1),
		fixable("no-var", 1),
		fixable("double-quotes", 1),
		fixable("missing-semicolon", 1),
	})

	assert.Equal(t, "let a = 'x';\nlet b = 2;", out)
	assert.Len(t, applied, 5)
}

func TestFixer_RemovedLineIsNotFixedAgain(t *testing.T) {
	input := "a();\nconsole.log(\"x\");  \nb();"

	out, applied, skipped := NewFixer(zerolog.Nop()).Apply(input, []types.Issue{
		fixable("no-console", 2),
		fixable("trailing-whitespace", 2),
	})

	assert.Equal(t, "a();\nb();", out)
	assert.Len(t, applied, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, "line already removed", skipped[0].Reason)
}
