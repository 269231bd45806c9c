package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
)

type messageListResponse struct {
	Messages   []*models.ChatMessage `json:"messages"`
	SessionID  string                `json:"sessionId,omitempty"`
	Query      string                `json:"query,omitempty"`
	Pagination query.Pagination      `json:"pagination"`
}

type sessionListResponse struct {
	Sessions   []models.ChatSession `json:"sessions"`
	Pagination query.Pagination     `json:"pagination"`
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

type editMessageRequest struct {
	Content string `json:"content"`
}

type reactionsResponse struct {
	Message   string            `json:"message"`
	Reactions []models.Reaction `json:"reactions"`
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req service.SendMessageInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := a.Service.SendMessage(r.Context(), userID(r), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleChatHistory serves both /history/{sessionId} and /history?sessionId=.
func (a *API) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		sessionID = values.Get("sessionId")
	}
	p, err := query.Parse(values, service.HistoryQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	msgs, pagination, err := a.Service.ChatHistory(r.Context(), userID(r), sessionID, p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageListResponse{Messages: msgs, SessionID: sessionID, Pagination: pagination})
}

func (a *API) handleChatSessions(w http.ResponseWriter, r *http.Request) {
	p, err := query.Parse(r.URL.Query(), service.SessionQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	sessions, pagination, err := a.Service.ChatSessions(r.Context(), userID(r), p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: sessions, Pagination: pagination})
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	n, err := a.Service.DeleteSession(r.Context(), userID(r), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Chat session deleted successfully",
		"deletedCount": n,
	})
}

func (a *API) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	var req editMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := a.Service.EditMessage(r.Context(), userID(r), chi.URLParam(r, "messageId"), req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Message updated successfully",
		"chatMessage": m,
	})
}

func (a *API) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := a.Service.AddReaction(r.Context(), userID(r), chi.URLParam(r, "messageId"), req.Reaction)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reactionsResponse{Message: "Reaction added successfully", Reactions: m.Reactions})
}

func (a *API) handleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	m, err := a.Service.RemoveReaction(r.Context(), userID(r), chi.URLParam(r, "messageId"), chi.URLParam(r, "type"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reactionsResponse{Message: "Reaction removed successfully", Reactions: m.Reactions})
}

// handleSearchMessages takes the term from q, not from the shared search parameter.
func (a *API) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	p, err := query.Parse(values, service.SearchQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	p.Search = strings.TrimSpace(values.Get("q"))
	msgs, pagination, err := a.Service.SearchMessages(r.Context(), userID(r), values.Get("sessionId"), p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageListResponse{Messages: msgs, Query: p.Search, Pagination: pagination})
}

func (a *API) handleChatStats(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	from, err := parseFlexTime("startDate", values.Get("startDate"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	to, err := parseFlexTime("endDate", values.Get("endDate"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	stats, err := a.Service.ChatStats(r.Context(), userID(r), from, to)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
