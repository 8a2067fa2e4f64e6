// Package llm abstracts the language-model capability the planning
// pipeline consumes. The pipeline never talks to a provider SDK directly;
// it builds a Request and hands it to a Client.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Role is the sender of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    Role
	Content string
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	}
	return fmt.Errorf("invalid message role: %s", m.Role)
}

// Request is one completion call: a system prompt, conversation history and
// the knobs forwarded to the provider.
type Request struct {
	System      string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	UserID      string
}

// Client abstracts the chosen SDK (OpenAI, Anthropic, ...). Implementations
// own the per-call timeout: if Request.Timeout is set they must bound the
// call with it.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// withTimeout derives a bounded context when the request carries a timeout.
func withTimeout(ctx context.Context, req Request) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithCancel(ctx)
}
