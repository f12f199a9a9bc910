// Package model defines the provider-neutral text generation contract the
// orchestration loop consumes. Providers adapt their APIs behind Model;
// everything tool-related happens in the loop itself, so adapters stay thin.
package model

import (
	"context"

	"github.com/hupe1980/agentloop/core"
)

// Request captures the normalized model input: a system instruction plus the
// conversation turns to condition on.
type Request struct {
	// Instructions is the system prompt, empty when none applies.
	Instructions string `json:"instructions"`

	// Turns is the conversation so far, oldest first. Tool turns are
	// rendered by adapters in whatever shape their provider expects.
	Turns []core.Turn `json:"turns"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete generation.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Chunk is a partial response emitted by a streaming model.
type Chunk struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "scripted", ...
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// StreamingModel is implemented by providers that can emit partial output.
// Consumers fall back to Generate when the interface is absent.
type StreamingModel interface {
	Model

	// GenerateStream emits chunks on the first channel and at most one error
	// on the second; both are closed when generation ends.
	GenerateStream(ctx context.Context, req Request) (<-chan Chunk, <-chan error)
}
