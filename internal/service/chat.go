package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/llm"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/observability"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/validate"
)

const (
	historyWindow       = 10
	defaultTemperature  = 0.7
	defaultMaxTokens    = 1000
	defaultPenalty      = 0.1
	apologyReply        = "I apologize, but I'm experiencing technical difficulties right now. Please try again in a moment."
	minSearchQueryRunes = 2
	maxSearchQueryRunes = 200
)

var (
	HistoryQuery = query.Spec{DefaultLimit: 50, MaxLimit: 100}
	SessionQuery = query.Spec{DefaultLimit: 20, MaxLimit: 50}
	SearchQuery  = query.Spec{DefaultLimit: 20, MaxLimit: 50}
)

type SendMessageInput struct {
	Message     string   `json:"message" validate:"required,max=4000"`
	SessionID   string   `json:"sessionId" validate:"omitempty,uuid"`
	Context     string   `json:"context" validate:"omitempty,oneof=general task_help note_help study_help planning other"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"maxTokens" validate:"omitempty,min=1,max=4000"`
}

type ReplyMetadata struct {
	Model        string            `json:"model"`
	Tokens       models.TokenUsage `json:"tokens"`
	ResponseTime int64             `json:"responseTime"`
}

type SendResult struct {
	Message   string        `json:"message"`
	SessionID string        `json:"sessionId"`
	Metadata  ReplyMetadata `json:"metadata"`
}

// AIUnavailableError reports a failed completion. The apology has already
// been stored in the session.
type AIUnavailableError struct {
	SessionID string
	Reply     string
	Err       error
}

func (e *AIUnavailableError) Error() string { return fmt.Sprintf("ai service unavailable: %v", e.Err) }
func (e *AIUnavailableError) Unwrap() error {
	return apperr.Upstream("AI_SERVICE_ERROR", "AI service temporarily unavailable", e.Err)
}

func messageNotFound() *apperr.Error {
	return apperr.NotFound("MESSAGE_NOT_FOUND", "Message not found")
}

// SendMessage stores the user turn, relays the recent session history to the
// model and stores the reply. A failed completion still leaves an assistant
// turn in the session.
func (s *Service) SendMessage(ctx context.Context, ownerID string, in SendMessageInput) (*SendResult, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	model, err := s.pickModel(in.Model)
	if err != nil {
		return nil, err
	}
	temperature := defaultTemperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}
	maxTokens := defaultMaxTokens
	if in.MaxTokens != nil {
		maxTokens = *in.MaxTokens
	}
	chatContext := orDefault(in.Context, "general")
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = s.NewID()
	}

	now := s.now()
	userMsg := s.newMessage(ownerID, sessionID, models.RoleUser, in.Message, chatContext, now)
	userMsg.Metadata.Model = model
	if err := s.Store.AppendMessage(ctx, userMsg); err != nil {
		return nil, apperr.Internal(err)
	}

	history, err := s.Store.RecentMessages(ctx, ownerID, sessionID, historyWindow)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	req := llm.Request{
		Model:            model,
		Messages:         make([]llm.Message, 0, len(history)+1),
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		PresencePenalty:  defaultPenalty,
		FrequencyPenalty: defaultPenalty,
	}
	req.Messages = append(req.Messages, llm.Message{Role: llm.RoleSystem, Content: llm.SystemPrompt})
	for _, m := range history {
		req.Messages = append(req.Messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	completion, callErr := s.LLM.Complete(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	replyAt := s.now()
	if callErr != nil {
		observability.LoggerFromContext(ctx).Error("chat completion failed",
			"session_id", sessionID, "model", model, "error", callErr)

		apology := s.newMessage(ownerID, sessionID, models.RoleAssistant, apologyReply, chatContext, replyAt)
		apology.Metadata.Model = model
		apology.Metadata.ResponseTime = &elapsed
		if err := s.Store.AppendMessage(ctx, apology); err != nil {
			return nil, apperr.Internal(err)
		}
		return nil, &AIUnavailableError{SessionID: sessionID, Reply: apologyReply, Err: callErr}
	}

	tokens := models.TokenUsage{
		Prompt:     completion.PromptTokens,
		Completion: completion.CompletionTokens,
		Total:      completion.TotalTokens,
	}
	reply := s.newMessage(ownerID, sessionID, models.RoleAssistant, completion.Text, chatContext, replyAt)
	reply.Metadata = models.ChatMetadata{
		Model:        model,
		Tokens:       tokens,
		ResponseTime: &elapsed,
		Temperature:  temperature,
		MaxTokens:    &maxTokens,
	}
	if err := s.Store.AppendMessage(ctx, reply); err != nil {
		return nil, apperr.Internal(err)
	}

	return &SendResult{
		Message:   completion.Text,
		SessionID: sessionID,
		Metadata:  ReplyMetadata{Model: model, Tokens: tokens, ResponseTime: elapsed},
	}, nil
}

func (s *Service) pickModel(model string) (string, error) {
	if model == "" {
		return s.Models[0], nil
	}
	if !slices.Contains(s.Models, model) {
		return "", apperr.Validation("Validation failed", apperr.FieldError{
			Field:   "model",
			Message: "model must be one of: " + strings.Join(s.Models, ", "),
		})
	}
	return model, nil
}

func (s *Service) newMessage(ownerID, sessionID, role, content, chatContext string, at time.Time) *models.ChatMessage {
	return &models.ChatMessage{
		ID:          s.NewID(),
		UserID:      ownerID,
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		Context:     chatContext,
		Metadata:    models.ChatMetadata{Temperature: defaultTemperature},
		Attachments: []models.Attachment{},
		Reactions:   []models.Reaction{},
		EditHistory: []models.Edit{},
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func (s *Service) ChatHistory(ctx context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, query.Pagination, error) {
	if err := validID("sessionId", sessionID); err != nil {
		return nil, query.Pagination{}, err
	}
	msgs, total, err := s.Store.SessionHistory(ctx, ownerID, sessionID, p)
	if err != nil {
		return nil, query.Pagination{}, apperr.Internal(err)
	}
	return msgs, query.NewPagination(p, total), nil
}

func (s *Service) ChatSessions(ctx context.Context, ownerID string, p query.Params) ([]models.ChatSession, query.Pagination, error) {
	sessions, total, err := s.Store.ListSessions(ctx, ownerID, p)
	if err != nil {
		return nil, query.Pagination{}, apperr.Internal(err)
	}
	return sessions, query.NewPagination(p, total), nil
}

// DeleteSession soft-deletes every live message of the session.
func (s *Service) DeleteSession(ctx context.Context, ownerID, sessionID string) (int, error) {
	if err := validID("sessionId", sessionID); err != nil {
		return 0, err
	}
	n, err := s.Store.DeleteSession(ctx, ownerID, sessionID, s.now())
	if err != nil {
		return 0, apperr.Internal(err)
	}
	if n == 0 {
		return 0, apperr.NotFound("SESSION_NOT_FOUND", "Chat session not found")
	}
	return n, nil
}

func (s *Service) AddReaction(ctx context.Context, ownerID, messageID, reaction string) (*models.ChatMessage, error) {
	if err := validID("messageId", messageID); err != nil {
		return nil, err
	}
	if err := validate.Var("reaction", reaction, "required,oneof=like dislike helpful not_helpful"); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateMessage(ctx, ownerID, messageID, func(m *models.ChatMessage) error {
		m.AddReaction(reaction, now)
		m.UpdatedAt = now
		return nil
	})
}

func (s *Service) RemoveReaction(ctx context.Context, ownerID, messageID, reaction string) (*models.ChatMessage, error) {
	if err := validID("messageId", messageID); err != nil {
		return nil, err
	}
	if err := validate.Var("reaction", reaction, "required,oneof=like dislike helpful not_helpful"); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateMessage(ctx, ownerID, messageID, func(m *models.ChatMessage) error {
		if err := m.RemoveReaction(reaction); err != nil {
			return apperr.NotFound("REACTION_NOT_FOUND", "Reaction not found")
		}
		m.UpdatedAt = now
		return nil
	})
}

// EditMessage replaces the content of one of the caller's own turns and keeps
// the previous text in the edit history.
func (s *Service) EditMessage(ctx context.Context, ownerID, messageID, content string) (*models.ChatMessage, error) {
	if err := validID("messageId", messageID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := validate.Var("content", content, "required,max=10000"); err != nil {
		return nil, err
	}
	now := s.now()
	return s.mutateMessage(ctx, ownerID, messageID, func(m *models.ChatMessage) error {
		if m.Role != models.RoleUser {
			return apperr.New(apperr.KindValidation, "MESSAGE_NOT_EDITABLE", "Only your own messages can be edited")
		}
		m.EditContent(content, now)
		m.UpdatedAt = now
		return nil
	})
}

func (s *Service) SearchMessages(ctx context.Context, ownerID, sessionID string, p query.Params) ([]*models.ChatMessage, query.Pagination, error) {
	if n := len([]rune(p.Search)); n < minSearchQueryRunes || n > maxSearchQueryRunes {
		return nil, query.Pagination{}, apperr.Validation("Search query must be between 2 and 200 characters",
			apperr.FieldError{Field: "q", Message: "Search query must be between 2 and 200 characters"})
	}
	if err := validate.Var("sessionId", sessionID, "omitempty,uuid"); err != nil {
		return nil, query.Pagination{}, err
	}
	msgs, total, err := s.Store.SearchMessages(ctx, ownerID, sessionID, p)
	if err != nil {
		return nil, query.Pagination{}, apperr.Internal(err)
	}
	return msgs, query.NewPagination(p, total), nil
}

// ChatStats applies the date window only when both bounds are given.
func (s *Service) ChatStats(ctx context.Context, ownerID string, from, to *time.Time) (*models.ChatStats, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.New(apperr.KindValidation, "INVALID_DATE", "endDate must not be before startDate")
	}
	stats, err := s.Store.ChatStats(ctx, ownerID, from, to)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}

func (s *Service) mutateMessage(ctx context.Context, ownerID, id string, fn func(*models.ChatMessage) error) (*models.ChatMessage, error) {
	m, err := s.Store.UpdateMessage(ctx, ownerID, id, fn)
	if err != nil {
		return nil, storeErr(err, messageNotFound())
	}
	return m, nil
}
