package llm

import (
	"fmt"
	"slices"
)

// ProblematicModels do not reliably return a single JSON object.
var ProblematicModels = []string{
	"codellama:13b",
	"codestral",
	"qwen3:14b",
}

var ApprovedModels = []string{
	"qwen2.5-coder:14b",
	"qwen2.5-coder:7b",
	"llama3.1:8b",
	"gpt-oss:20b",
	"codestral:22b",
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4.1-mini",
}

func ValidateModel(model string) error {
	if slices.Contains(ProblematicModels, model) {
		return fmt.Errorf("model '%s' has known issues and cannot be used", model)
	}
	return nil
}

// IsApproved reports whether the model has been exercised against the review prompt.
func IsApproved(model string) bool {
	return slices.Contains(ApprovedModels, model)
}
