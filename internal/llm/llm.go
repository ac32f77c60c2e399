package llm

import "fmt"

// New builds an LLM from config. Returns (nil, nil) when no provider is
// configured so callers can treat generation as an optional capability.
func New(cfg Config) (LLM, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		return newClaude(cfg.APIKey, model), nil
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}

		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}

		return newOpenAICompatible(cfg.APIKey, baseURL, model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}

		model := cfg.Model
		if model == "" {
			model = "qwen2:0.5b"
		}

		// Ollama's OpenAI-compatible endpoint
		return newOpenAICompatible("ollama", baseURL+"/v1", model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
