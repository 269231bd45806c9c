package models

import (
	"errors"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	ChatContexts  = []string{"general", "task_help", "note_help", "study_help", "planning", "other"}
	ReactionTypes = []string{"like", "dislike", "helpful", "not_helpful"}
)

var ErrReactionNotFound = errors.New("reaction not found")

type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

type ChatMetadata struct {
	Model        string     `json:"model"`
	Tokens       TokenUsage `json:"tokens"`
	ResponseTime *int64     `json:"responseTime"`
	Temperature  float64    `json:"temperature"`
	MaxTokens    *int       `json:"maxTokens"`
}

type Reaction struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type Edit struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"editedAt"`
}

type ChatMessage struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user"`
	SessionID   string       `json:"sessionId"`
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Context     string       `json:"context"`
	Metadata    ChatMetadata `json:"metadata"`
	Attachments []Attachment `json:"attachments"`
	Reactions   []Reaction   `json:"reactions"`
	IsEdited    bool         `json:"isEdited"`
	EditHistory []Edit       `json:"editHistory"`
	IsDeleted   bool         `json:"isDeleted"`
	DeletedAt   *time.Time   `json:"deletedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// AddReaction keeps at most one reaction per type; the newest wins.
func (m *ChatMessage) AddReaction(kind string, now time.Time) {
	kept := m.Reactions[:0]
	for _, r := range m.Reactions {
		if r.Type != kind {
			kept = append(kept, r)
		}
	}
	m.Reactions = append(kept, Reaction{Type: kind, Timestamp: now})
}

func (m *ChatMessage) RemoveReaction(kind string) error {
	for i, r := range m.Reactions {
		if r.Type == kind {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return nil
		}
	}
	return ErrReactionNotFound
}

func (m *ChatMessage) EditContent(content string, now time.Time) {
	m.EditHistory = append(m.EditHistory, Edit{Content: m.Content, EditedAt: now})
	m.Content = content
	m.IsEdited = true
}

func (m *ChatMessage) SoftDelete(now time.Time) {
	ts := now
	m.IsDeleted = true
	m.DeletedAt = &ts
}

type SessionMessage struct {
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatSession struct {
	SessionID    string         `json:"sessionId"`
	LastMessage  SessionMessage `json:"lastMessage"`
	MessageCount int            `json:"messageCount"`
	LastActivity time.Time      `json:"lastActivity"`
}

type ChatStats struct {
	TotalMessages   int     `json:"totalMessages"`
	TotalTokens     int     `json:"totalTokens"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	SessionCount    int     `json:"sessionCount"`
}
