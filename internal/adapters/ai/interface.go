package ai

import "context"

// Client is a single-turn text completion model
type Client interface {
	Name() string

	// Complete returns the model's answer to prompt under the given system instruction.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Provider names accepted by AI_PROVIDER
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)
