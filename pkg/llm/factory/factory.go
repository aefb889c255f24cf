package factory

import (
	"fmt"

	"identity-coach-be/pkg/llm"
	"identity-coach-be/pkg/llm/huggingface"
	"identity-coach-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured backend. Every supported backend can produce
// schema-constrained replies.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.StructuredProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
