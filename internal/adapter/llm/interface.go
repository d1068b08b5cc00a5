// Package llm provides an abstraction for OpenAI-compatible chat completion backends.
package llm

import "context"

// LLMClient defines the interface for generation backends.
type LLMClient interface {
	// CreateChatCompletion sends a chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Ensure Client implements LLMClient interface.
var _ LLMClient = (*Client)(nil)
