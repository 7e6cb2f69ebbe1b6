// Package llm wraps the chat-completion capability behind a small interface.
package llm

import (
	"context"
	"fmt"

	"github.com/Nm02/Asistente-Academico-IITA/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Client generates a completion from an ordered message sequence.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// NewClient builds the OpenAI-backed client from configuration.
func NewClient(cfg config.Config) (Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return newOpenAIClient(cfg), nil
}
