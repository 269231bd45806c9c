package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/auth"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/llm"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/ratelimit"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store/memory"
)

const testPassword = "Secret1!x"

type testServer struct {
	api  *API
	mock *llm.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mock := llm.NewMock()
	manager := auth.NewManager("test-secret", time.Hour, 24*time.Hour)
	svc := service.New(memory.New(), manager, mock, []string{"gemini-2.5-flash"})
	return &testServer{
		api: &API{
			Service:         svc,
			LoginLimiter:    ratelimit.New(15*time.Minute, 100),
			RegisterLimiter: ratelimit.New(time.Hour, 100),
			Storage:         "memory",
			LLMBackend:      "mock",
		},
		mock: mock,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.api.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// register returns the access token of a fresh account.
func (s *testServer) register(t *testing.T, username, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":  username,
		"email":     email,
		"password":  testPassword,
		"firstName": "Ada",
		"lastName":  "Lovelace",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tokens := decode(t, rec)["tokens"].(map[string]any)
	return tokens["accessToken"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		require.Equal(t, "OK", body["status"])
		require.Equal(t, "mock", body["llm"])
	}
}

func TestRegisterLoginCreateAndListTasks(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, "Ada Lovelace", body["user"].(map[string]any)["fullName"])
	token := body["tokens"].(map[string]any)["accessToken"].(string)

	rec = s.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "T1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/tasks?status=pending", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	task := tasks[0].(map[string]any)
	require.Equal(t, "T1", task["title"])
	require.Nil(t, task["completedAt"])
	require.Equal(t, float64(0), task["completionPercentage"])
	require.Equal(t, false, task["isOverdue"])
	require.Equal(t, map[string]any{"page": float64(1), "limit": float64(20), "total": float64(1), "pages": float64(1)}, body["pagination"])

	rec = s.do(t, http.MethodGet, "/api/tasks?page=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	require.Empty(t, body["tasks"])
	require.Equal(t, float64(1), body["pagination"].(map[string]any)["total"])
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice2", "email": "A@X.com", "password": testPassword, "firstName": "A", "lastName": "B",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "USER_EXISTS", body["code"])
	require.Equal(t, "Email already registered", body["error"])
}

func TestValidationErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "a!", "email": "nope", "password": "weak", "firstName": "A", "lastName": "B",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "VALIDATION_ERROR", body["code"])
	fields := map[string]bool{}
	for _, d := range body["details"].([]any) {
		fields[d.(map[string]any)["field"].(string)] = true
	}
	require.True(t, fields["username"])
	require.True(t, fields["email"])
	require.True(t, fields["password"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_JSON", decode(t, rec)["code"])
}

func TestAuthGate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/api/tasks", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_INVALID", decode(t, rec)["code"])

	token := s.register(t, "alice", "a@x.com")
	rec = s.do(t, http.MethodDelete, "/api/auth/deactivate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "ACCOUNT_DEACTIVATED", decode(t, rec)["code"])
}

func TestSessionProbe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"authenticated": false}, decode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/auth/session", "garbage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decode(t, rec)["authenticated"])

	token := s.register(t, "alice", "a@x.com")
	rec = s.do(t, http.MethodGet, "/api/auth/session", token, nil)
	body := decode(t, rec)
	require.Equal(t, true, body["authenticated"])
	require.Equal(t, "alice", body["user"].(map[string]any)["username"])
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": testPassword, "firstName": "A", "lastName": "B",
	})
	tokens := decode(t, rec)["tokens"].(map[string]any)

	rec = s.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": tokens["refreshToken"].(string)})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decode(t, rec)["accessToken"])

	rec = s.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": tokens["accessToken"].(string)})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "INVALID_TOKEN", decode(t, rec)["code"])
}

func TestRegisterRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.api.RegisterLimiter = ratelimit.New(time.Hour, 3)

	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "3600", rec.Header().Get("Retry-After"))
	body := decode(t, rec)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
	require.Equal(t, float64(3600), body["retryAfter"])

	// login has its own window
	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", "a@x.com")
	bob := s.register(t, "bob", "b@x.com")

	rec := s.do(t, http.MethodPost, "/api/tasks", alice, map[string]string{"title": "Private"})
	id := decode(t, rec)["task"].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodGet, "/api/tasks/"+id, bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "TASK_NOT_FOUND", decode(t, rec)["code"])

	rec = s.do(t, http.MethodPatch, "/api/tasks/"+id+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task := decode(t, rec)["task"].(map[string]any)
	require.Equal(t, "completed", task["status"])
	require.NotNil(t, task["completedAt"])
	require.Equal(t, float64(100), task["completionPercentage"])

	rec = s.do(t, http.MethodDelete, "/api/tasks/"+id, bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTaskNullClearsDueDate(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	due := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	rec := s.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "Essay", "dueDate": due})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["task"].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodPut, "/api/tasks/"+id, token, map[string]any{"priority": "high"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decode(t, rec)["task"].(map[string]any)["dueDate"])

	rec = s.do(t, http.MethodPut, "/api/tasks/"+id, token, map[string]any{"dueDate": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task := decode(t, rec)["task"].(map[string]any)
	require.Nil(t, task["dueDate"])
	require.Equal(t, "high", task["priority"])
}

func TestNotesAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", "a@x.com")
	bob := s.register(t, "bob", "b@x.com")

	rec := s.do(t, http.MethodPost, "/api/notes", alice, map[string]string{"title": "Diary", "content": "private"})
	id := decode(t, rec)["note"].(map[string]any)["id"].(string)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/notes/" + id},
		{http.MethodPut, "/api/notes/" + id},
		{http.MethodPatch, "/api/notes/" + id + "/pin"},
		{http.MethodPost, "/api/notes/" + id + "/tags"},
		{http.MethodDelete, "/api/notes/" + id},
	} {
		rec = s.do(t, req.method, req.path, bob, map[string]string{"content": "hijack", "tag": "stolen"})
		require.Equal(t, http.StatusNotFound, rec.Code, req.method+" "+req.path)
		require.Equal(t, "NOTE_NOT_FOUND", decode(t, rec)["code"])
	}

	rec = s.do(t, http.MethodGet, "/api/notes", bob, nil)
	require.Empty(t, decode(t, rec)["notes"])

	rec = s.do(t, http.MethodGet, "/api/notes/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "private", decode(t, rec)["note"].(map[string]any)["content"])
}

func TestNotesFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/notes", token, map[string]any{
		"title": "Lecture", "content": "one two three", "tags": []string{"School"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	note := decode(t, rec)["note"].(map[string]any)
	id := note["id"].(string)
	require.Equal(t, float64(3), note["wordCount"])
	require.Equal(t, float64(1), note["readingTime"])
	require.Equal(t, []any{"school"}, note["tags"])

	rec = s.do(t, http.MethodPatch, "/api/notes/"+id+"/pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Note pinned successfully", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/notes/pinned", token, nil)
	require.Len(t, decode(t, rec)["notes"], 1)

	rec = s.do(t, http.MethodDelete, "/api/notes/"+id+"/tags/missing", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "TAG_NOT_FOUND", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/api/notes?pinned=maybe", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/notes/"+id+"/reminders", token, map[string]any{
		"date": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_DATE", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/api/notes/tags", token, nil)
	require.Equal(t, []any{map[string]any{"name": "school", "count": float64(1)}}, decode(t, rec)["tags"])
}

func TestChatConversation(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/chat/message", token, map[string]string{"message": "Help me plan"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode(t, rec)
	sessionID := first["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	require.Equal(t, "gemini-2.5-flash", first["metadata"].(map[string]any)["model"])

	rec = s.do(t, http.MethodPost, "/api/chat/message", token, map[string]string{"message": "And tomorrow?", "sessionId": sessionID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/chat/history/"+sessionID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode(t, rec)["messages"].([]any)
	require.Len(t, msgs, 4)
	require.Equal(t, "Help me plan", msgs[0].(map[string]any)["content"])
	require.Equal(t, "And tomorrow?", msgs[2].(map[string]any)["content"])

	rec = s.do(t, http.MethodGet, "/api/chat/history?sessionId="+sessionID+"&limit=1", token, nil)
	body := decode(t, rec)
	require.Len(t, body["messages"], 1)
	require.Equal(t, float64(4), body["pagination"].(map[string]any)["pages"])

	rec = s.do(t, http.MethodGet, "/api/chat/search?q=t", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/chat/search?q=tomorrow", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decode(t, rec)["messages"])

	rec = s.do(t, http.MethodDelete, "/api/chat/sessions/"+sessionID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(4), decode(t, rec)["deletedCount"])

	rec = s.do(t, http.MethodGet, "/api/chat/sessions", token, nil)
	require.Empty(t, decode(t, rec)["sessions"])
}

func TestChatUpstreamFailure(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")
	s.mock.Err = errors.New("upstream down")

	rec := s.do(t, http.MethodPost, "/api/chat/message", token, map[string]string{"message": "Hello"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "AI_SERVICE_ERROR", body["code"])
	require.Equal(t, "AI service temporarily unavailable", body["error"])
	require.NotEmpty(t, body["message"])
	sessionID := body["sessionId"].(string)

	rec = s.do(t, http.MethodGet, "/api/chat/history/"+sessionID, token, nil)
	msgs := decode(t, rec)["messages"].([]any)
	require.Len(t, msgs, 2)
	require.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
}

func TestChatStatsRejectsBadDates(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "a@x.com")

	rec := s.do(t, http.MethodGet, "/api/chat/stats?startDate=yesterday", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/chat/stats?startDate=2025-03-02&endDate=2025-03-01", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_DATE", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/api/chat/stats?startDate=2025-03-01&endDate=2025-03-02", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(0), decode(t, rec)["stats"].(map[string]any)["totalMessages"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	s.api.Origins = []string{"https://dash.example.com"}

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	s.api.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.api.Router().ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardIsNotCredentialed(t *testing.T) {
	s := newTestServer(t)
	s.api.Origins = []string{"https://dash.example.com", "*"}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	s.api.Router().ServeHTTP(rec, req)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec = httptest.NewRecorder()
	s.api.Router().ServeHTTP(rec, req)
	require.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
