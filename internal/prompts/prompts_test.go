package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptWithTemplate(t *testing.T) {
	payload := ReviewPayload{
		Title:       "Add login",
		Description: "Implements password login",
		BaseBranch:  "main",
		Files: []PromptFile{
			{Path: "src/auth.ts", Language: "typescript", Content: "export const x = 1;"},
			{Path: "notes.txt", Content: "hello", Truncated: true},
		},
		StaticFindings: []string{"src/auth.ts:1 [low] Trailing whitespace"},
	}

	for _, name := range ListPromptVariants() {
		t.Run(name, func(t *testing.T) {
			prompt, err := BuildPromptWithTemplate(name, payload)
			require.NoError(t, err)

			assert.Contains(t, prompt, "Title: Add login")
			assert.Contains(t, prompt, "--- src/auth.ts (typescript) ---")
			assert.Contains(t, prompt, "--- notes.txt (text) [truncated] ---")
			assert.Contains(t, prompt, "Implements password login")
			assert.Contains(t, prompt, "- src/auth.ts:1 [low] Trailing whitespace")
			assert.Contains(t, prompt, `"overallScore": 0-100`)
		})
	}
}

func TestBuildPromptWithTemplate_NoStaticFindings(t *testing.T) {
	prompt, err := BuildPromptWithTemplate(DEFAULT_PROMPT, ReviewPayload{Title: "t"})
	require.NoError(t, err)

	assert.NotContains(t, prompt, "STATIC ANALYSIS FINDINGS")
	assert.NotContains(t, prompt, "Description:")
}

func TestBuildPromptWithTemplate_UnknownVariant(t *testing.T) {
	_, err := BuildPromptWithTemplate("nope", ReviewPayload{})
	assert.Error(t, err)
}

func TestListPromptVariants(t *testing.T) {
	assert.Equal(t, []string{"default", "security"}, ListPromptVariants())
}
