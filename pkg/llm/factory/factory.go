package factory

import (
	"context"
	"fmt"

	"paperchat-be/pkg/llm"
	"paperchat-be/pkg/llm/anthropic"
	"paperchat-be/pkg/llm/gemini"
	"paperchat-be/pkg/llm/ollama"
	"paperchat-be/pkg/llm/openai"
)

// Keys holds provider credentials
type Keys struct {
	OpenAI    string
	Anthropic string
	Gemini    string
}

func NewLLMProvider(ctx context.Context, providerType, modelName, baseURL string, keys Keys) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		if keys.OpenAI == "" && baseURL == "" {
			return nil, fmt.Errorf("openai api key is required (set OPENAI_API_KEY)")
		}
		return openai.NewProvider(keys.OpenAI, baseURL, modelName), nil
	case "anthropic":
		return anthropic.NewProvider(keys.Anthropic, modelName)
	case "gemini":
		return gemini.NewProvider(ctx, keys.Gemini, modelName)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
