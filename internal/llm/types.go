package llm

import "context"

// Config holds provider selection and credentials for a chat model.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// LLM is a minimal chat-completion interface. Handlers that need text
// generation depend on this rather than on a concrete provider.
type LLM interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}
