package prompts

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// PromptVariant is a named review prompt template.
type PromptVariant struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Template    string `json:"template"`
}

var PromptVariants = map[string]PromptVariant{
	"default": {
		Name:        "default",
		Description: "Holistic pull request review",
		Template:    defaultPromptTemplate,
	},
	"security": {
		Name:        "security",
		Description: "Review that weighs security findings first",
		Template:    securityPromptTemplate,
	},
}

const DEFAULT_PROMPT = "default"

// PromptFile is one changed file as shown to the model.
type PromptFile struct {
	Path      string
	Language  string
	Content   string
	Truncated bool
}

// ReviewPayload is the data every review template renders.
type ReviewPayload struct {
	Title          string
	Description    string
	BaseBranch     string
	Files          []PromptFile
	StaticFindings []string
}

func GetPromptVariant(name string) (PromptVariant, error) {
	variant, exists := PromptVariants[name]
	if !exists {
		return PromptVariant{}, fmt.Errorf("prompt variant '%s' not found", name)
	}
	return variant, nil
}

func ListPromptVariants() []string {
	names := make([]string, 0, len(PromptVariants))
	for name := range PromptVariants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPromptTemplates() (*template.Template, error) {
	tmpl := template.New("prompts")

	for name, variant := range PromptVariants {
		_, err := tmpl.New(name).Parse(variant.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}

	return tmpl, nil
}

func BuildPromptWithTemplate(variantName string, payload ReviewPayload) (string, error) {
	if _, err := GetPromptVariant(variantName); err != nil {
		return "", err
	}

	templates, err := LoadPromptTemplates()
	if err != nil {
		return "", fmt.Errorf("failed to load templates: %w", err)
	}

	var result strings.Builder
	err = templates.ExecuteTemplate(&result, variantName, payload)
	if err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", variantName, err)
	}

	return result.String(), nil
}

const filesSection = `=== PULL REQUEST ===
Title: {{.Title}}
Base branch: {{.BaseBranch}}
{{if .Description}}Description:
{{.Description}}
{{end}}
=== CHANGED FILES ===
{{range .Files}}
--- {{.Path}} ({{if .Language}}{{.Language}}{{else}}text{{end}}){{if .Truncated}} [truncated]{{end}} ---
{{.Content}}
{{end}}
{{if .StaticFindings}}=== STATIC ANALYSIS FINDINGS (already reported, do not repeat) ===
{{range .StaticFindings}}- {{.}}
{{end}}{{end}}`

const responseFormat = `=== RESPONSE FORMAT ===
Respond with ONE JSON object and nothing else:
{
  "summary": "two or three sentences describing the change and its overall quality",
  "overallScore": 0-100,
  "positiveFindings": ["things done well"],
  "issues": [
    {
      "severity": "critical | high | medium | low | info",
      "category": "security | performance | maintainability | style | bug | best-practice",
      "message": "what is wrong",
      "file": "exact path from the file header",
      "line": 12,
      "end_line": 14,
      "suggestion": "how to fix it"
    }
  ],
  "recommendations": ["follow-up work for the author"]
}

RULES:
- Use the EXACT file path from the file header
- Line numbers are 1-based and must point at the file content above
- Omit "line" for file-level observations
- Use an empty "issues" array when nothing is wrong
- No markdown fences, no prose outside the JSON object`

const defaultPromptTemplate = `You are a Principal Software Engineer reviewing a pull request. Judge correctness, security, performance and maintainability of the changed files as a whole.

` + filesSection + `
=== SEVERITY GUIDE ===
critical: exploitable vulnerability, data loss, guaranteed crash
high: likely bug or security weakness, broken error handling
medium: maintainability or performance problem worth fixing before merge
low: minor readability or style problem
info: observation, no action required

` + responseFormat

const securityPromptTemplate = `You are an application security engineer reviewing a pull request. Look first for injection, authentication and authorization flaws, secrets, unsafe deserialization and insecure defaults; then review general quality.

` + filesSection + `
=== SEVERITY GUIDE ===
critical: exploitable vulnerability or leaked credential
high: security weakness that needs a fix before merge, or a likely bug
medium: hardening opportunity or maintainability problem
low: minor problem
info: observation

` + responseFormat
