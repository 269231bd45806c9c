// Package llm talks to the chat-completion backend behind the assistant.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("llm returned empty text")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Model            string
	Messages         []Message
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
}

type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client sends role-tagged messages and returns the reply with token usage.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}
