package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	// Format is a JSON schema the reply must conform to.
	Format json.RawMessage
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithFormat constrains the reply to the given JSON schema.
func WithFormat(schema json.RawMessage) Option {
	return func(o *Options) {
		o.Format = schema
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// StructuredProvider is a backend that can constrain replies to a JSON schema.
type StructuredProvider interface {
	LLMProvider

	// ChatJSON returns the raw JSON document produced under schema.
	ChatJSON(ctx context.Context, history []Message, schema json.RawMessage, options ...Option) ([]byte, error)
}
