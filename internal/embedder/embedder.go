package embedder

import (
	"fmt"

	"github.com/whyhi/wos/internal/canon"
)

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// New returns the configured embedding provider, or (nil, nil) when no
// provider is set; Canon then runs in text-search-only mode.
func New(cfg Config) (canon.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return newOpenAI(baseURL, cfg.APIKey, model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return newOllama(baseURL, model), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", cfg.Provider)
	}
}
