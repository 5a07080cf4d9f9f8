// Package llm is the chat-completion boundary for AI-assisted link
// selection, extraction, and web-search adapters. Every caller treats a
// provider failure as a signal to fall back to its deterministic path,
// never as a hard error.
package llm

import (
	"context"

	"github.com/deadonfilm/deadonfilm/internal/model"
)

// Provider is a chat-completion service.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete runs one chat completion.
	Complete(ctx context.Context, req Request) (*Completion, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Request is the input for one completion call.
type Request struct {
	// Model is the specific model to use (empty: provider default).
	Model string

	// System is the optional system message.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature, zero value means provider default (we run low for
	// factual extraction).
	Temperature float32
}

// Usage tracks token consumption for cost accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Completion is the provider's response.
type Completion struct {
	Text  string
	Model string
	Usage Usage
	Free  bool // local endpoint; tokens cost nothing
}

// Cost returns the dollar cost of this completion based on published
// per-million-token rates for the model that produced it. Completions
// from a local endpoint cost nothing regardless of model name.
func (c *Completion) Cost() float64 {
	if c.Free {
		return 0
	}
	return TokenCost(c.Model, c.Usage)
}

// Config holds provider configuration.
type Config struct {
	Provider  string // "openai", "ollama", "" (disabled)
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// ConfigFromModel converts the engine-level LLM config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
