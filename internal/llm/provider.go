package llm

import "context"

// Provider generates a completion for a single prompt.
type Provider interface {
	GetModel() string
	Generate(ctx context.Context, prompt string) (string, error)
}

var SupportedProviders = []string{string(ProviderOllama), string(ProviderOpenAI)}

const systemPrompt = "You are a meticulous senior code reviewer. You answer with a single JSON object and nothing else."
