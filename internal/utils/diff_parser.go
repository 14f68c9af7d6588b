package utils

import (
	"bytes"
	"fmt"

	"github.com/sourcegraph/go-diff/diff"
)

// LineRange is a span of lines on the new side of a patch.
type LineRange struct {
	Start int
	Count int
}

// PatchLines describes which new-side lines of a file a patch touches.
type PatchLines struct {
	// Added holds lines introduced by the patch.
	Added map[int]bool
	// Context holds unchanged lines that are visible in the patch hunks.
	Context map[int]bool
	Hunks   []LineRange
}

// Commentable reports whether GitHub accepts a review comment on the given new-side line.
func (p PatchLines) Commentable(line int) bool {
	return p.Added[line] || p.Context[line]
}

// ParsePatch parses the hunk-only patch text GitHub returns per file.
func ParsePatch(patch string) (PatchLines, error) {
	lines := PatchLines{
		Added:   make(map[int]bool),
		Context: make(map[int]bool),
	}
	if patch == "" {
		return lines, nil
	}

	hunks, err := diff.ParseHunks([]byte(ensureTrailingNewline(patch)))
	if err != nil {
		return lines, fmt.Errorf("failed to parse patch hunks: %w", err)
	}

	for _, hunk := range hunks {
		start := int(hunk.NewStartLine)
		lines.Hunks = append(lines.Hunks, LineRange{Start: start, Count: int(hunk.NewLines)})

		current := start
		for _, raw := range bytes.Split(hunk.Body, []byte("\n")) {
			if len(raw) == 0 {
				continue
			}
			switch raw[0] {
			case '+':
				lines.Added[current] = true
				current++
			case ' ':
				lines.Context[current] = true
				current++
			case '-', '\\':
				// removed lines and "\ No newline at end of file" markers do not advance
			}
		}
	}

	return lines, nil
}

func ensureTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}
