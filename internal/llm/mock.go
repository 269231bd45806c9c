package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock answers locally. Set Err to make every call fail.
type Mock struct {
	Err error

	mu   sync.Mutex
	last *Request
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Complete(ctx context.Context, req Request) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	copied := req
	copied.Messages = append([]Message(nil), req.Messages...)
	m.last = &copied
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	var lastUser string
	prompt := 0
	for _, msg := range req.Messages {
		prompt += len(strings.Fields(msg.Content))
		if msg.Role == RoleUser {
			lastUser = msg.Content
		}
	}
	text := fmt.Sprintf("You said %q. Let's work through it together.", lastUser)
	completion := len(strings.Fields(text))
	return &Completion{
		Text:             text,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}, nil
}

// LastRequest returns the most recent request, or nil.
func (m *Mock) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
