package ai

import (
	"context"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Provider is the interface for chat completion providers. Complete returns
// the raw model output for a conversation; callers parse the action envelope
// out of it.
type Provider interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}
